// Package engine runs the turns of a language-learning text adventure. A turn
// loads the saved state, asks the narrator what happens, keeps only the
// world changes the catalog allows, scores quests and vocabulary, saves the
// state as one unit and returns a fresh view.
//
// The engine keeps no per-player state between calls. Only one turn per
// (profile, language) should be in flight at a time; callers enforce that,
// and concurrent turns for the same pair resolve as last write wins.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/oracle"
	"github.com/tatianab/langquest/internal/quest"
	"github.com/tatianab/langquest/internal/store"
	"github.com/tatianab/langquest/internal/vocab"
)

// LearnPrefix starts a grammar question instead of a story turn.
const LearnPrefix = "/learn"

// Oracle generates narration. Its output is untrusted free text.
type Oracle interface {
	Generate(ctx context.Context, systemPrompt, turnContext, playerInput string) (string, error)
}

// Explainer answers /learn questions that the catalog has no lesson for.
type Explainer interface {
	Explain(ctx context.Context, req oracle.ExplainRequest) (string, error)
}

// Options tune an Engine. Zero values take the defaults.
type Options struct {
	OracleTimeout  time.Duration
	HistoryWindow  int
	DueLimit       int
	MaxAwardPoints int
	Scheduler      *vocab.SM2
	Logger         *slog.Logger
	Now            func() time.Time
	NewID          func() string
}

const (
	DefaultOracleTimeout  = 30 * time.Second
	DefaultHistoryWindow  = 6
	DefaultDueLimit       = 20
	DefaultMaxAwardPoints = 10
)

func (o Options) withDefaults() Options {
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = DefaultOracleTimeout
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = DefaultHistoryWindow
	}
	if o.DueLimit <= 0 {
		o.DueLimit = DefaultDueLimit
	}
	if o.MaxAwardPoints <= 0 {
		o.MaxAwardPoints = DefaultMaxAwardPoints
	}
	if o.Scheduler == nil {
		o.Scheduler = vocab.NewSM2()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	catalogs  *catalog.Registry
	store     store.Store
	oracle    Oracle
	explainer Explainer
	opts      Options
	log       *slog.Logger
}

// New returns an engine. explainer may be nil, in which case /learn only
// answers from catalog lessons.
func New(catalogs *catalog.Registry, st store.Store, o Oracle, explainer Explainer, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		catalogs:  catalogs,
		store:     st,
		oracle:    o,
		explainer: explainer,
		opts:      opts,
		log:       opts.Logger,
	}
}

// session is a loaded game with its resolved catalog content.
type session struct {
	catalog *catalog.Catalog
	module  *catalog.Module
	state   *models.GameState
}

func (e *Engine) language(language string) (*catalog.Catalog, error) {
	cat, ok := e.catalogs.Get(language)
	if !ok {
		return nil, &UnknownEntityError{Kind: "language", ID: language}
	}
	return cat, nil
}

func (e *Engine) load(ctx context.Context, profile, language string) (*session, error) {
	if strings.TrimSpace(profile) == "" {
		return nil, &InvalidInputError{Reason: "profile is required"}
	}
	cat, err := e.language(language)
	if err != nil {
		return nil, err
	}
	state, found, err := e.loadState(ctx, profile, language)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &SessionNotFoundError{Profile: profile, Language: language}
	}
	mod, ok := cat.Module(state.Module)
	if !ok {
		return nil, &UnknownEntityError{Kind: "module", ID: state.Module}
	}
	if _, ok := mod.Location(state.Location); !ok {
		state.Location = mod.StartLocation
	}
	return &session{catalog: cat, module: mod, state: state}, nil
}

func (e *Engine) loadState(ctx context.Context, profile, language string) (*models.GameState, bool, error) {
	state, found, err := e.store.Load(ctx, profile, language)
	switch {
	case errors.Is(err, store.ErrInvalidKey):
		return nil, false, &InvalidInputError{Reason: fmt.Sprintf("profile %q may only contain letters, digits, '-' and '_'", profile)}
	case err != nil:
		return nil, false, &PersistenceError{Op: "load", Err: err}
	}
	return state, found, nil
}

func (e *Engine) save(ctx context.Context, s *session) error {
	if err := e.store.Save(ctx, s.state.Profile, s.state.Language, s.module.ID, s.state); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// InitSession starts or resumes the game of profile in language, entering
// moduleID. Resuming keeps vocabulary, points and badges; switching to
// another module places the player at its start location.
func (e *Engine) InitSession(ctx context.Context, profile, language, moduleID string) (*models.GameView, error) {
	if strings.TrimSpace(profile) == "" {
		return nil, &InvalidInputError{Reason: "profile is required"}
	}
	cat, err := e.language(language)
	if err != nil {
		return nil, err
	}
	mod, ok := cat.Module(moduleID)
	if !ok {
		return nil, &UnknownEntityError{Kind: "module", ID: moduleID}
	}

	now := e.opts.Now()
	state, found, err := e.loadState(ctx, profile, language)
	if err != nil {
		return nil, err
	}
	if !found {
		state = models.NewGameState(profile, language, now)
	}
	if state.Level < mod.UnlockLevel {
		return nil, &ModuleLockedError{Module: mod.ID, Required: mod.UnlockLevel, Level: state.Level}
	}

	working := state.Clone()
	s := &session{catalog: cat, module: mod, state: working}
	location := working.Location
	if working.Module != mod.ID {
		location = mod.StartLocation
	}
	if _, ok := mod.Location(location); !ok {
		location = mod.StartLocation
	}
	working.Module = mod.ID
	e.enter(s, location)

	working.Vocabulary.SessionCount++
	working.Vocabulary.LastSessionDate = now.Format(time.DateOnly)
	res := quest.Evaluate(mod, working)
	quest.Apply(working, res)
	working.UpdatedAt = now

	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	e.log.Info("session started", "profile", profile, "language", language, "module", mod.ID, "resumed", found)

	loc, _ := mod.Location(working.Location)
	return e.project(s, loc.Description, res, now), nil
}

// PlayTurn plays one turn of free-text input. Input starting with /learn is
// answered without advancing the story.
func (e *Engine) PlayTurn(ctx context.Context, profile, language, input string) (*models.GameView, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, &InvalidInputError{Reason: "input is empty"}
	}
	if topic, ok := learnTopic(input); ok {
		return e.learnTurn(ctx, profile, language, topic)
	}

	s, err := e.load(ctx, profile, language)
	if err != nil {
		return nil, err
	}
	now := e.opts.Now()
	s.state = s.state.Clone()

	// The summary and the narration share one deadline.
	deadline := time.Now().Add(e.opts.OracleTimeout)
	e.compactHistory(ctx, s, deadline)

	turnContext, err := buildTurnContext(s, e.opts.HistoryWindow, e.opts.MaxAwardPoints, now)
	if err != nil {
		return nil, fmt.Errorf("build turn context: %w", err)
	}
	raw, err := e.generate(ctx, deadline, s.catalog.SystemPrompt, turnContext, input)
	if err != nil {
		return nil, err
	}

	reply := oracle.Parse(raw)
	applied, rejected := e.applyEffects(s, reply.Effects)
	trackVocabulary(s, input, reply.Narrative, now)

	res := quest.Evaluate(s.module, s.state)
	quest.Apply(s.state, res)

	s.state.History.Entries = append(s.state.History.Entries, models.HistoryEntry{
		ID:           e.opts.NewID(),
		At:           now,
		PlayerAction: input,
		Narrative:    reply.Narrative,
		Location:     s.state.Location,
		Applied:      applied,
		Rejected:     rejected,
	})
	s.state.UpdatedAt = now

	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	e.log.Info("turn played",
		"profile", profile,
		"language", language,
		"location", s.state.Location,
		"applied", len(applied),
		"rejected", len(rejected),
		"quests", res.Completed,
	)
	return e.project(s, reply.Narrative, res, now), nil
}

func learnTopic(input string) (string, bool) {
	rest, ok := strings.CutPrefix(input, LearnPrefix)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// learnTurn answers a /learn command inside a game. The save is only read.
func (e *Engine) learnTurn(ctx context.Context, profile, language, topic string) (*models.GameView, error) {
	s, err := e.load(ctx, profile, language)
	if err != nil {
		return nil, err
	}
	text, err := e.HandleLearnCommand(ctx, language, topic)
	if err != nil {
		if Retryable(err) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		text = err.Error()
	}
	return e.project(s, text, quest.Result{}, e.opts.Now()), nil
}

// HandleLearnCommand explains a grammar topic, preferring the catalog's
// lessons over the explainer.
func (e *Engine) HandleLearnCommand(ctx context.Context, language, topic string) (string, error) {
	cat, err := e.language(language)
	if err != nil {
		return "", err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topics := make([]string, 0, len(cat.Lessons))
		for name := range cat.Lessons {
			topics = append(topics, name)
		}
		slices.Sort(topics)
		return "", &InvalidInputError{Reason: "usage: /learn <topic>; try " + strings.Join(topics, ", ")}
	}
	lesson, ok := cat.Lesson(topic)
	if ok {
		return strings.TrimSpace(lesson), nil
	}
	if e.explainer == nil {
		return "", &UnknownEntityError{Kind: "lesson", ID: topic}
	}

	octx, cancel := context.WithTimeout(ctx, e.opts.OracleTimeout)
	defer cancel()
	name := cat.DisplayName
	if name == "" {
		name = cat.Name
	}
	req := oracle.ExplainRequest{Language: name, Topic: topic}
	if _, notes, ok := cat.RelatedLesson(topic); ok {
		req.Lesson = strings.TrimSpace(notes)
	}
	text, err := e.explainer.Explain(octx, req)
	if err != nil {
		return "", e.oracleError(ctx, octx, err)
	}
	return text, nil
}

// ReviewResult holds the scheduling fields of a reviewed word.
type ReviewResult struct {
	WordID        string      `json:"word_id"`
	SRSInterval   int         `json:"srs_interval"`
	SRSNextReview time.Time   `json:"srs_next_review"`
	SRSEase       float64     `json:"srs_ease"`
	Stage         vocab.Stage `json:"stage"`
}

// ReviewDue grades the recall of one word and reschedules it.
func (e *Engine) ReviewDue(ctx context.Context, profile, language, wordID string, quality int) (*ReviewResult, error) {
	if quality < int(vocab.QualityBlackout) || quality > int(vocab.QualityPerfect) {
		return nil, &InvalidInputError{Reason: fmt.Sprintf("quality %d is outside 0..5", quality)}
	}
	s, err := e.load(ctx, profile, language)
	if err != nil {
		return nil, err
	}
	now := e.opts.Now()
	s.state = s.state.Clone()

	id := wordID
	if _, ok := s.state.Vocabulary.Words[id]; !ok {
		id = vocab.WordID(wordID, s.catalog.Articles)
	}
	progress, err := e.opts.Scheduler.Review(s.state.Vocabulary, id, vocab.Quality(quality), now)
	if err != nil {
		return nil, err
	}
	s.state.Vocabulary = progress

	res := quest.Evaluate(s.module, s.state)
	quest.Apply(s.state, res)
	s.state.UpdatedAt = now
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}

	wp := progress.Words[id]
	e.log.Debug("word reviewed", "profile", profile, "word", id, "quality", quality, "interval", wp.SRSInterval)
	return &ReviewResult{
		WordID:        wp.WordID,
		SRSInterval:   wp.SRSInterval,
		SRSNextReview: wp.SRSNextReview,
		SRSEase:       wp.SRSEase,
		Stage:         wp.Stage,
	}, nil
}

// DueList is the review queue of a profile.
type DueList struct {
	Cards []vocab.WordProgress `json:"cards"`
	Stats vocab.Stats          `json:"stats"`
}

// ListDue returns the words due for review, most overdue first, and counts
// each returned word as surfaced.
func (e *Engine) ListDue(ctx context.Context, profile, language string) (*DueList, error) {
	s, err := e.load(ctx, profile, language)
	if err != nil {
		return nil, err
	}
	now := e.opts.Now()
	s.state = s.state.Clone()

	var ids []string
	for wp := range vocab.SelectDue(s.state.Vocabulary, now, e.opts.DueLimit) {
		ids = append(ids, wp.WordID)
	}
	if len(ids) > 0 {
		s.state.Vocabulary.MarkSurfaced(ids...)
		s.state.UpdatedAt = now
		if err := e.save(ctx, s); err != nil {
			return nil, err
		}
	}

	cards := make([]vocab.WordProgress, 0, len(ids))
	for _, id := range ids {
		cards = append(cards, s.state.Vocabulary.Words[id])
	}
	return &DueList{Cards: cards, Stats: vocab.Summarize(s.state.Vocabulary, now)}, nil
}

// Saves lists the saved games.
func (e *Engine) Saves(ctx context.Context) ([]store.SaveRef, error) {
	refs, err := e.store.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return refs, nil
}

func (e *Engine) generate(ctx context.Context, deadline time.Time, systemPrompt, turnContext, input string) (string, error) {
	octx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	raw, err := e.oracle.Generate(octx, systemPrompt, turnContext, input)
	if err != nil {
		return "", e.oracleError(ctx, octx, err)
	}
	return raw, nil
}

func (e *Engine) oracleError(parent, octx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("narrator call abandoned: %w", parent.Err())
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(octx.Err(), context.DeadlineExceeded):
		return &OracleTimeoutError{Timeout: e.opts.OracleTimeout}
	default:
		return &OracleUnavailableError{Err: err}
	}
}
