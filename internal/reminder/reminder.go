// Package reminder periodically counts the vocabulary due for review in every
// save and tells a Notifier about it.
package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tatianab/langquest/internal/store"
	"github.com/tatianab/langquest/internal/vocab"
)

// DefaultInterval is how often saves are checked when no interval is set.
const DefaultInterval = 10 * time.Minute

// Notifier receives a reminder for each save with words due.
type Notifier interface {
	NotifyDue(ref store.SaveRef, due int)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ref store.SaveRef, due int)

func (f NotifierFunc) NotifyDue(ref store.SaveRef, due int) { f(ref, due) }

// Scheduler runs the reminder job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     store.Store
	notifier  Notifier
	interval  time.Duration
	profile   string
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithProfile limits reminders to one profile.
func WithProfile(profile string) Option {
	return func(s *Scheduler) { s.profile = profile }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler that checks st every interval.
func New(st store.Store, notifier Notifier, interval time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     st,
		notifier:  notifier,
		interval:  interval,
		log:       slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the check and runs it in the background. The first check
// happens one interval after Start.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()
		s.Check(ctx)
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates the scheduled job.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Check counts due words in every save and notifies about the ones with
// words waiting. It returns how many reminders were sent.
func (s *Scheduler) Check(ctx context.Context) int {
	refs, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("failed to list saves", "error", err)
		return 0
	}

	now := s.now()
	sent := 0
	for _, ref := range refs {
		if s.profile != "" && ref.Profile != s.profile {
			continue
		}
		state, ok, err := s.store.Load(ctx, ref.Profile, ref.Language)
		if err != nil {
			s.log.Error("failed to load save", "profile", ref.Profile, "language", ref.Language, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if due := vocab.DueCount(state.Vocabulary, now); due > 0 {
			s.notifier.NotifyDue(ref, due)
			sent++
		}
	}
	s.log.Debug("reminder check finished", "saves", len(refs), "sent", sent)
	return sent
}
