package vocab

import (
	"fmt"
	"maps"
	"time"
)

// Stage is a word's coarse mastery bucket.
type Stage string

const (
	StageNew      Stage = "new"
	StageLearning Stage = "learning"
	StageKnown    Stage = "known"
)

// Record schema versions for WordProgress. Saves written before the scheduler
// existed carry no version and no SRS fields.
const (
	VersionLegacy  = 1
	VersionSRS     = 2
	VersionStreak  = 3
	CurrentVersion = VersionStreak
)

// DefaultEase is the starting ease factor of every word.
const DefaultEase = 2.5

// WordProgress tracks one vocabulary item for one profile and language.
type WordProgress struct {
	Version            int       `yaml:"version,omitempty"`
	WordID             string    `yaml:"word_id"`
	TargetForms        []string  `yaml:"target_forms"`
	NativeForm         string    `yaml:"native_form"`
	Stage              Stage     `yaml:"stage"`
	LastUsed           time.Time `yaml:"last_used,omitempty"`
	TimesUsedCorrectly int       `yaml:"times_used_correctly"`
	TimesSeenInContext int       `yaml:"times_seen_in_context"`

	SRSInterval   int       `yaml:"srs_interval,omitempty"` // days
	SRSEase       float64   `yaml:"srs_ease,omitempty"`
	SRSNextReview time.Time `yaml:"srs_next_review,omitempty"`
	SRSDueCount   int       `yaml:"srs_due_count,omitempty"`
	SRSStreak     int       `yaml:"srs_streak,omitempty"`
	LastReviewed  time.Time `yaml:"last_reviewed,omitempty"`
}

// Progress is the vocabulary state of one profile and language.
type Progress struct {
	Words           map[string]WordProgress `yaml:"words"`
	SessionCount    int                     `yaml:"session_count"`
	LastSessionDate string                  `yaml:"last_session_date,omitempty"`
}

// NewProgress returns an empty Progress.
func NewProgress() Progress {
	return Progress{Words: make(map[string]WordProgress)}
}

// Clone returns a copy that shares no mutable state with p.
func (p Progress) Clone() Progress {
	out := p
	out.Words = make(map[string]WordProgress, len(p.Words))
	for id, wp := range p.Words {
		wp.TargetForms = append([]string(nil), wp.TargetForms...)
		out.Words[id] = wp
	}
	return out
}

// Get returns the upgraded record for wordID.
func (p Progress) Get(wordID string) (WordProgress, bool) {
	wp, ok := p.Words[wordID]
	if !ok {
		return WordProgress{}, false
	}
	return Upgrade(wp), true
}

// UnknownWordError is returned when a review targets a word the profile has
// never encountered.
type UnknownWordError struct {
	WordID string
}

func (e *UnknownWordError) Error() string {
	return fmt.Sprintf("unknown word %q", e.WordID)
}

type upgradeStep func(WordProgress) WordProgress

// upgradeSteps[i] lifts a record from version i+1 to i+2.
var upgradeSteps = []upgradeStep{
	// Only absent fields are backfilled; a version-less record that already
	// carries a schedule keeps it.
	func(wp WordProgress) WordProgress {
		wp.SRSInterval = max(wp.SRSInterval, 0)
		if wp.SRSEase == 0 {
			wp.SRSEase = DefaultEase
		}
		wp.SRSDueCount = max(wp.SRSDueCount, 0)
		return wp
	},
	func(wp WordProgress) WordProgress {
		wp.SRSStreak = 0
		if !wp.SRSNextReview.IsZero() {
			wp.LastReviewed = wp.SRSNextReview.AddDate(0, 0, -wp.SRSInterval)
		}
		return wp
	},
}

// Upgrade brings a record to CurrentVersion. Stage and usage counters are
// never touched. Upgrading an already current record is a no-op.
func Upgrade(wp WordProgress) WordProgress {
	v := wp.Version
	if v < VersionLegacy {
		v = VersionLegacy
	}
	for ; v < CurrentVersion; v++ {
		wp = upgradeSteps[v-VersionLegacy](wp)
	}
	wp.Version = CurrentVersion
	if wp.SRSEase == 0 {
		wp.SRSEase = DefaultEase
	}
	if wp.Stage == "" {
		wp.Stage = StageNew
	}
	return wp
}

// UpgradeAll upgrades every record of p in place.
func UpgradeAll(p *Progress) {
	if p.Words == nil {
		p.Words = make(map[string]WordProgress)
	}
	for id, wp := range p.Words {
		p.Words[id] = Upgrade(wp)
	}
}

func cloneWords(words map[string]WordProgress) map[string]WordProgress {
	if words == nil {
		return make(map[string]WordProgress)
	}
	return maps.Clone(words)
}
