package models

import (
	"maps"
	"slices"
	"time"

	"github.com/tatianab/langquest/internal/vocab"
)

// StateVersion is the schema version written with every save.
const StateVersion = 2

// GrammarStat counts attempts at a grammar point.
type GrammarStat struct {
	Correct int `yaml:"correct"`
	Total   int `yaml:"total"`
}

// GameState is the complete mutable state of one profile in one language. It
// is the unit of persistence.
type GameState struct {
	Version           int                    `yaml:"version"`
	Profile           string                 `yaml:"profile"`
	Language          string                 `yaml:"language"`
	Module            string                 `yaml:"module"`
	Location          string                 `yaml:"location"`
	ObjectStates      map[string]string      `yaml:"object_states,omitempty"` // object id -> state
	ObjectLocations   map[string]string      `yaml:"object_locations,omitempty"`
	NPCStates         map[string]string      `yaml:"npc_states,omitempty"`
	Flags             map[string]bool        `yaml:"flags,omitempty"`
	Inventory         []string               `yaml:"inventory"`
	Visited           []string               `yaml:"visited"`
	CompletedQuests   []string               `yaml:"completed_quests"`
	Badges            []string               `yaml:"badges"`
	Vocabulary        vocab.Progress         `yaml:"vocabulary"`
	GrammarStats      map[string]GrammarStat `yaml:"grammar_stats,omitempty"`
	Level             int                    `yaml:"level"`
	TotalPointsEarned int                    `yaml:"total_points_earned"`
	History           GameHistory            `yaml:"history"`
	CreatedAt         time.Time              `yaml:"created_at"`
	UpdatedAt         time.Time              `yaml:"updated_at"`
}

// HistoryEntry represents a single turn in the game.
type HistoryEntry struct {
	ID           string    `yaml:"id"`
	At           time.Time `yaml:"at"`
	PlayerAction string    `yaml:"player_action"`
	Narrative    string    `yaml:"narrative"`
	Location     string    `yaml:"location"`
	Applied      []string  `yaml:"applied,omitempty"`  // effects that changed the world
	Rejected     []string  `yaml:"rejected,omitempty"` // effects the narrator proposed but the world refused
}

// GameHistory contains the abbreviated history of the game.
type GameHistory struct {
	Summary string         `yaml:"summary"`
	Entries []HistoryEntry `yaml:"entries"`
}

// NewGameState returns an empty level 1 state.
func NewGameState(profile, language string, now time.Time) *GameState {
	return &GameState{
		Version:         StateVersion,
		Profile:         profile,
		Language:        language,
		ObjectStates:    make(map[string]string),
		ObjectLocations: make(map[string]string),
		NPCStates:       make(map[string]string),
		Flags:           make(map[string]bool),
		Inventory:       []string{},
		Visited:         []string{},
		CompletedQuests: []string{},
		Badges:          []string{},
		Vocabulary:      vocab.NewProgress(),
		GrammarStats:    make(map[string]GrammarStat),
		Level:           1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy. Turns mutate a clone and only persist it once
// every step succeeded.
func (s *GameState) Clone() *GameState {
	c := *s
	c.ObjectStates = cloneMap(s.ObjectStates)
	c.ObjectLocations = cloneMap(s.ObjectLocations)
	c.NPCStates = cloneMap(s.NPCStates)
	c.Flags = cloneMap(s.Flags)
	c.GrammarStats = cloneMap(s.GrammarStats)
	c.Inventory = slices.Clone(s.Inventory)
	c.Visited = slices.Clone(s.Visited)
	c.CompletedQuests = slices.Clone(s.CompletedQuests)
	c.Badges = slices.Clone(s.Badges)
	c.Vocabulary = s.Vocabulary.Clone()
	c.History.Entries = make([]HistoryEntry, len(s.History.Entries))
	for i, e := range s.History.Entries {
		e.Applied = slices.Clone(e.Applied)
		e.Rejected = slices.Clone(e.Rejected)
		c.History.Entries[i] = e
	}
	return &c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}

// Upgrade fills fields that older saves lack. It is idempotent.
func (s *GameState) Upgrade() {
	if s.ObjectStates == nil {
		s.ObjectStates = make(map[string]string)
	}
	if s.ObjectLocations == nil {
		s.ObjectLocations = make(map[string]string)
	}
	if s.NPCStates == nil {
		s.NPCStates = make(map[string]string)
	}
	if s.Flags == nil {
		s.Flags = make(map[string]bool)
	}
	if s.GrammarStats == nil {
		s.GrammarStats = make(map[string]GrammarStat)
	}
	if s.Level < 1 {
		s.Level = 1
	}
	vocab.UpgradeAll(&s.Vocabulary)
	s.Visited = normalizeSet(s.Visited)
	s.CompletedQuests = normalizeSet(s.CompletedQuests)
	s.Badges = normalizeSet(s.Badges)
	s.Version = StateVersion
}

func normalizeSet(items []string) []string {
	if items == nil {
		return []string{}
	}
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}

func (s *GameState) HasVisited(location string) bool {
	_, ok := slices.BinarySearch(s.Visited, location)
	return ok
}

func (s *GameState) MarkVisited(location string) {
	s.Visited = addToSet(s.Visited, location)
}

func (s *GameState) IsQuestCompleted(id string) bool {
	_, ok := slices.BinarySearch(s.CompletedQuests, id)
	return ok
}

// CompleteQuest adds id to the completed set. It reports false if it was
// already there.
func (s *GameState) CompleteQuest(id string) bool {
	if s.IsQuestCompleted(id) {
		return false
	}
	s.CompletedQuests = addToSet(s.CompletedQuests, id)
	return true
}

func (s *GameState) HasBadge(id string) bool {
	_, ok := slices.BinarySearch(s.Badges, id)
	return ok
}

// AwardBadge adds id to the badge set. Awarding a held badge is a no-op that
// reports false.
func (s *GameState) AwardBadge(id string) bool {
	if s.HasBadge(id) {
		return false
	}
	s.Badges = addToSet(s.Badges, id)
	return true
}

func (s *GameState) Holds(object string) bool {
	return slices.Contains(s.Inventory, object)
}

// ObjectState returns the current state of an object, falling back to its
// initial state.
func (s *GameState) ObjectState(id, initial string) string {
	if st, ok := s.ObjectStates[id]; ok {
		return st
	}
	return initial
}

// ObjectLocation returns where an object lies, or "" when it is carried.
func (s *GameState) ObjectLocation(id, initial string) string {
	if s.Holds(id) {
		return ""
	}
	if loc, ok := s.ObjectLocations[id]; ok {
		return loc
	}
	return initial
}

func (s *GameState) NPCState(id, initial string) string {
	if st, ok := s.NPCStates[id]; ok {
		return st
	}
	return initial
}

func addToSet(set []string, item string) []string {
	i, ok := slices.BinarySearch(set, item)
	if ok {
		return set
	}
	return slices.Insert(set, i, item)
}
