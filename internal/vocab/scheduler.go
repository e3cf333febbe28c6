package vocab

import (
	"cmp"
	"errors"
	"iter"
	"math"
	"slices"
	"time"
)

// Quality rates how hard a word was to recall.
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect Quality = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct response but required significant effort
	QualityCorrectDifficult Quality = 3
	// Correct response after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect response with no hesitation
	QualityPerfect Quality = 5
)

// ErrInvalidQuality is returned for ratings outside 0..5.
var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// SM2 holds the tuning of the SuperMemo-2 style scheduler.
type SM2 struct {
	// Ratings at or above this count as a successful recall.
	PassThreshold Quality
	// Intervals in days used for the first successful reviews.
	SeedIntervals []int
	// Interval after a failed review.
	FailureInterval int
	// Ease lost on a failed review.
	FailurePenalty float64
	MinEase        float64
	MaxInterval    int
	// A learning word becomes known once its interval reaches KnownInterval
	// days or it has KnownStreak consecutive successes.
	KnownInterval int
	KnownStreak   int
}

// NewSM2 returns the scheduler with its default tuning.
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:   QualityCorrectDifficult,
		SeedIntervals:   []int{1, 6},
		FailureInterval: 0,
		FailurePenalty:  0.2,
		MinEase:         1.3,
		MaxInterval:     365,
		KnownInterval:   21,
		KnownStreak:     5,
	}
}

// Review applies a recall rating for wordID at time now and returns the
// updated progress. p itself is left untouched.
func (sm *SM2) Review(p Progress, wordID string, quality Quality, now time.Time) (Progress, error) {
	if quality < QualityBlackout || quality > QualityPerfect {
		return p, ErrInvalidQuality
	}
	wp, ok := p.Get(wordID)
	if !ok {
		return p, &UnknownWordError{WordID: wordID}
	}

	if quality >= sm.PassThreshold {
		wp.SRSInterval = sm.nextInterval(wp.SRSInterval, wp.SRSEase)
		wp.SRSEase = math.Max(sm.MinEase, wp.SRSEase+easeDelta(quality))
		wp.SRSStreak++
		switch wp.Stage {
		case StageNew:
			wp.Stage = StageLearning
		case StageLearning:
			if wp.SRSInterval >= sm.KnownInterval || wp.SRSStreak >= sm.KnownStreak {
				wp.Stage = StageKnown
			}
		}
	} else {
		wp.SRSInterval = sm.FailureInterval
		wp.SRSEase = math.Max(sm.MinEase, wp.SRSEase-sm.FailurePenalty)
		wp.SRSStreak = 0
		wp.Stage = StageLearning
	}

	wp.LastReviewed = now
	wp.SRSNextReview = now.AddDate(0, 0, wp.SRSInterval)

	out := p
	out.Words = cloneWords(p.Words)
	out.Words[wordID] = wp
	return out, nil
}

func (sm *SM2) nextInterval(current int, ease float64) int {
	for i, seed := range sm.SeedIntervals {
		prev := 0
		if i > 0 {
			prev = sm.SeedIntervals[i-1]
		}
		if current <= prev {
			return seed
		}
	}
	next := int(math.Ceil(float64(current) * ease))
	if next <= current {
		next = current + 1
	}
	return min(next, max(sm.MaxInterval, current))
}

func easeDelta(q Quality) float64 {
	d := float64(QualityPerfect - q)
	return 0.1 - d*(0.08+d*0.02)
}

// SelectDue yields every word due at now, most overdue first, at most limit
// words (limit <= 0 means no limit). The sequence can be ranged over any
// number of times and never mutates p.
func SelectDue(p Progress, now time.Time, limit int) iter.Seq[WordProgress] {
	return func(yield func(WordProgress) bool) {
		due := make([]WordProgress, 0, len(p.Words))
		for _, wp := range p.Words {
			wp = Upgrade(wp)
			if !wp.SRSNextReview.After(now) {
				due = append(due, wp)
			}
		}
		slices.SortFunc(due, func(a, b WordProgress) int {
			if c := a.SRSNextReview.Compare(b.SRSNextReview); c != 0 {
				return c
			}
			return cmp.Compare(a.WordID, b.WordID)
		})
		for i, wp := range due {
			if limit > 0 && i >= limit {
				return
			}
			if !yield(wp) {
				return
			}
		}
	}
}

// DueCount reports how many words are due at now.
func DueCount(p Progress, now time.Time) int {
	n := 0
	for range SelectDue(p, now, 0) {
		n++
	}
	return n
}
