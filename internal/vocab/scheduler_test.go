package vocab

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func progressWith(words ...WordProgress) Progress {
	p := NewProgress()
	for _, wp := range words {
		p.Words[wp.WordID] = wp
	}
	return p
}

func freshWord(id string) WordProgress {
	return WordProgress{
		Version:    CurrentVersion,
		WordID:     id,
		Stage:      StageNew,
		SRSEase:    DefaultEase,
		NativeForm: id + "-en",
	}
}

func TestReview_FirstSuccessUsesSeed(t *testing.T) {
	sm := NewSM2()
	p := progressWith(freshWord("casa"))

	out, err := sm.Review(p, "casa", QualityPerfect, t0)
	require.NoError(t, err)

	wp := out.Words["casa"]
	assert.Equal(t, 1, wp.SRSInterval)
	assert.Equal(t, t0.AddDate(0, 0, 1), wp.SRSNextReview)
	assert.Equal(t, t0, wp.LastReviewed)
	assert.Equal(t, StageLearning, wp.Stage)
	assert.InDelta(t, 2.6, wp.SRSEase, 1e-9)

	// the input progress is not mutated
	assert.Equal(t, 0, p.Words["casa"].SRSInterval)
}

func TestReview_FailureResetsAndPenalises(t *testing.T) {
	sm := NewSM2()
	p := progressWith(freshWord("casa"))

	p, err := sm.Review(p, "casa", QualityPerfect, t0)
	require.NoError(t, err)
	p, err = sm.Review(p, "casa", QualityCorrectHesitation, t0.AddDate(0, 0, 1))
	require.NoError(t, err)
	before := p.Words["casa"]
	require.Equal(t, 6, before.SRSInterval)

	now := t0.AddDate(0, 0, 7)
	p, err = sm.Review(p, "casa", QualityIncorrect, now)
	require.NoError(t, err)

	wp := p.Words["casa"]
	assert.Equal(t, sm.FailureInterval, wp.SRSInterval)
	assert.InDelta(t, before.SRSEase-sm.FailurePenalty, wp.SRSEase, 1e-9)
	assert.Equal(t, StageLearning, wp.Stage)
	assert.Equal(t, 0, wp.SRSStreak)
	assert.Equal(t, now, wp.SRSNextReview)
}

func TestReview_KnownWordRegressesOnFailure(t *testing.T) {
	sm := NewSM2()
	wp := freshWord("perro")
	wp.Stage = StageKnown
	wp.SRSInterval = 40
	wp.SRSEase = 1.4

	p, err := sm.Review(progressWith(wp), "perro", QualityBlackout, t0)
	require.NoError(t, err)
	assert.Equal(t, StageLearning, p.Words["perro"].Stage)
	assert.InDelta(t, 1.3, p.Words["perro"].SRSEase, 1e-9)
}

func TestReview_BecomesKnown(t *testing.T) {
	sm := NewSM2()
	p := progressWith(freshWord("gato"))
	now := t0
	for i := 0; i < 10 && p.Words["gato"].Stage != StageKnown; i++ {
		var err error
		p, err = sm.Review(p, "gato", QualityPerfect, now)
		require.NoError(t, err)
		now = p.Words["gato"].SRSNextReview
	}
	wp := p.Words["gato"]
	assert.Equal(t, StageKnown, wp.Stage)
	assert.True(t, wp.SRSInterval >= sm.KnownInterval || wp.SRSStreak >= sm.KnownStreak)
}

func TestReview_Errors(t *testing.T) {
	sm := NewSM2()
	p := progressWith(freshWord("casa"))

	_, err := sm.Review(p, "mesa", QualityPerfect, t0)
	var unknown *UnknownWordError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "mesa", unknown.WordID)

	_, err = sm.Review(p, "casa", Quality(6), t0)
	assert.ErrorIs(t, err, ErrInvalidQuality)
	_, err = sm.Review(p, "casa", Quality(-1), t0)
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestReview_SuccessMonotonic(t *testing.T) {
	sm := NewSM2()
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		p := progressWith(freshWord("w"))
		now := t0
		prev := p.Words["w"]
		for step := 0; step < 30; step++ {
			q := Quality(3 + rng.Intn(3))
			var err error
			p, err = sm.Review(p, "w", q, now)
			require.NoError(t, err)

			cur := p.Words["w"]
			assert.GreaterOrEqual(t, cur.SRSInterval, prev.SRSInterval)
			assert.True(t, cur.SRSNextReview.After(prev.SRSNextReview), "next review must strictly increase")
			prev = cur
			now = cur.SRSNextReview.Add(time.Duration(rng.Intn(48)) * time.Hour)
		}
	}
}

func TestReview_EaseFloorAndRegression(t *testing.T) {
	sm := NewSM2()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 100; run++ {
		p := progressWith(freshWord("w"))
		now := t0
		for step := 0; step < 40; step++ {
			before := p.Words["w"]
			q := Quality(rng.Intn(6))
			var err error
			p, err = sm.Review(p, "w", q, now)
			require.NoError(t, err)

			after := p.Words["w"]
			assert.GreaterOrEqual(t, after.SRSEase, sm.MinEase)
			if q < sm.PassThreshold {
				assert.Equal(t, sm.FailureInterval, after.SRSInterval)
				assert.LessOrEqual(t, after.SRSEase, before.SRSEase)
			}
			assert.Equal(t, after.LastReviewed.AddDate(0, 0, after.SRSInterval), after.SRSNextReview)
			now = now.Add(time.Duration(1+rng.Intn(72)) * time.Hour)
		}
	}
}

func TestSelectDue(t *testing.T) {
	now := t0
	words := []WordProgress{
		{WordID: "a", Version: CurrentVersion, SRSEase: 2.5, SRSNextReview: now.Add(-time.Hour)},
		{WordID: "b", Version: CurrentVersion, SRSEase: 2.5, SRSNextReview: now.Add(-48 * time.Hour)},
		{WordID: "c", Version: CurrentVersion, SRSEase: 2.5, SRSNextReview: now.Add(time.Hour)},
		{WordID: "d", Version: CurrentVersion, SRSEase: 2.5, SRSNextReview: now},
		{WordID: "legacy", Stage: StageLearning, TimesSeenInContext: 3},
	}
	p := progressWith(words...)

	var got []string
	for wp := range SelectDue(p, now, 0) {
		got = append(got, wp.WordID)
	}
	assert.Equal(t, []string{"legacy", "b", "a", "d"}, got)

	// restartable and truncated
	var limited []string
	for wp := range SelectDue(p, now, 2) {
		limited = append(limited, wp.WordID)
	}
	assert.Equal(t, []string{"legacy", "b"}, limited)
	assert.Equal(t, 4, DueCount(p, now))

	// no side effects on the source
	assert.Equal(t, 0, p.Words["legacy"].Version)
}

func TestSelectDue_ExactlyDueItems(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	now := t0
	for run := 0; run < 50; run++ {
		p := NewProgress()
		want := map[string]bool{}
		for i := 0; i < 25; i++ {
			id := fmt.Sprintf("w%02d", i)
			offset := time.Duration(rng.Intn(200)-100) * time.Hour
			p.Words[id] = WordProgress{WordID: id, Version: CurrentVersion, SRSEase: 2.5, SRSNextReview: now.Add(offset)}
			if offset <= 0 {
				want[id] = true
			}
		}

		var seen []WordProgress
		for wp := range SelectDue(p, now, 0) {
			seen = append(seen, wp)
		}
		require.Len(t, seen, len(want))
		ids := map[string]bool{}
		for _, wp := range seen {
			assert.True(t, want[wp.WordID])
			assert.False(t, ids[wp.WordID], "duplicate %s", wp.WordID)
			ids[wp.WordID] = true
		}
		assert.True(t, slices.IsSortedFunc(seen, func(a, b WordProgress) int {
			return a.SRSNextReview.Compare(b.SRSNextReview)
		}))
	}
}
