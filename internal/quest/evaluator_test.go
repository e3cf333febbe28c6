package quest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/vocab"
)

func testModule(t *testing.T) *catalog.Module {
	t.Helper()
	m := &catalog.Module{
		ID:            "home",
		StartLocation: "hall",
		Locations: []catalog.Location{
			{ID: "hall", Exits: map[string]string{"north": "kitchen"}},
			{ID: "kitchen", Exits: map[string]string{"south": "hall"}},
		},
		Objects: []catalog.WorldObject{
			{ID: "fridge", Location: "kitchen", States: []string{"closed", "open"}},
			{ID: "apple", Location: "kitchen", Portable: true},
		},
		NPCs: []catalog.NPC{{ID: "gran", Location: "kitchen", States: []string{"calm", "happy"}}},
		Badges: []catalog.Badge{
			{ID: "explorer", Name: "Explorer"},
			{ID: "helper", Name: "Helper"},
		},
		Quests: []catalog.Quest{
			{ID: "visit_kitchen", Triggers: []catalog.Trigger{{Visit: "kitchen"}}, Reward: catalog.Reward{Points: 10, Badge: "explorer"}},
			{ID: "snack", Requires: []string{"open_fridge"}, Triggers: []catalog.Trigger{{Have: "apple"}}, Reward: catalog.Reward{Points: 20}},
			{ID: "open_fridge", Triggers: []catalog.Trigger{{ObjectState: &catalog.StateMatch{ID: "fridge", State: "open"}}}, Reward: catalog.Reward{Points: 5}},
			{ID: "happy_gran", Requires: []string{"snack"}, Triggers: []catalog.Trigger{{NPCState: &catalog.StateMatch{ID: "gran", State: "happy"}}}, Reward: catalog.Reward{Points: 80, Badge: "helper"}},
			{ID: "second_explorer", Triggers: []catalog.Trigger{{Visit: "hall"}, {Flag: "looked_around"}}, Reward: catalog.Reward{Points: 1, Badge: "explorer"}},
			{ID: "talker", Triggers: []catalog.Trigger{{WordsUsed: 2}}},
			{ID: "scholar", Triggers: []catalog.Trigger{{WordsKnown: 1}}},
		},
	}
	c, err := catalog.NewCatalog(catalog.Language{Name: "test"}, m)
	require.NoError(t, err)
	mod, _ := c.Module("home")
	return mod
}

func newState() *models.GameState {
	s := models.NewGameState("p", "test", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Module = "home"
	s.Location = "hall"
	s.MarkVisited("hall")
	return s
}

func TestEvaluate_FreshStateCompletesNothing(t *testing.T) {
	res := Evaluate(testModule(t), newState())
	assert.True(t, res.Empty())
	assert.Zero(t, res.Points)
}

func TestEvaluate_BadgeIdempotence(t *testing.T) {
	m := testModule(t)
	s := newState()
	s.MarkVisited("kitchen")
	s.Flags["looked_around"] = true

	res := Evaluate(m, s)
	assert.Equal(t, []string{"visit_kitchen", "second_explorer"}, res.Completed)
	assert.Equal(t, []string{"explorer"}, res.Badges, "a badge is awarded once even if two quests grant it")
	assert.Equal(t, 11, res.Points)

	Apply(s, res)
	assert.Equal(t, 11, s.TotalPointsEarned)

	again := Evaluate(m, s)
	assert.True(t, again.Empty())
	assert.Zero(t, again.Points)

	Apply(s, again)
	assert.Equal(t, []string{"explorer"}, s.Badges)
	assert.Equal(t, 11, s.TotalPointsEarned)
}

func TestEvaluate_PrerequisiteOrdering(t *testing.T) {
	m := testModule(t)
	s := newState()
	s.Inventory = []string{"apple"}
	s.NPCStates["gran"] = "happy"

	// snack and happy_gran triggers hold but open_fridge has not happened
	res := Evaluate(m, s)
	assert.NotContains(t, res.Completed, "snack")
	assert.NotContains(t, res.Completed, "happy_gran")

	s.ObjectStates["fridge"] = "open"
	res = Evaluate(m, s)
	assert.Equal(t, []string{"open_fridge", "snack", "happy_gran"}, res.Completed)
	assert.Equal(t, []string{"helper"}, res.Badges)

	Apply(s, res)
	assert.Equal(t, 2, s.Level)
	assert.Equal(t, []string{"happy_gran", "open_fridge", "snack"}, s.CompletedQuests)
}

func TestEvaluate_Deterministic(t *testing.T) {
	m := testModule(t)
	s := newState()
	s.MarkVisited("kitchen")
	s.Flags["looked_around"] = true
	s.ObjectStates["fridge"] = "open"

	first := Evaluate(m, s)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Evaluate(m, s))
	}
}

func TestEvaluate_VocabularyTriggers(t *testing.T) {
	m := testModule(t)
	s := newState()
	now := time.Now()
	s.Vocabulary.Use(vocab.Item{WordID: "hola"}, now)
	assert.NotContains(t, Evaluate(m, s).Completed, "talker")

	s.Vocabulary.Use(vocab.Item{WordID: "casa"}, now)
	assert.Contains(t, Evaluate(m, s).Completed, "talker")

	wp := s.Vocabulary.Words["casa"]
	wp.Stage = vocab.StageKnown
	s.Vocabulary.Words["casa"] = wp
	assert.Contains(t, Evaluate(m, s).Completed, "scholar")
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0))
	assert.Equal(t, 1, LevelFor(99))
	assert.Equal(t, 2, LevelFor(100))
	assert.Equal(t, 1, LevelFor(-5))
}
