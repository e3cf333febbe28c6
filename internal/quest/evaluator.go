// Package quest decides which quests a game state satisfies and which badges
// they award. Evaluation is pure: it reads the catalog and the state and
// returns what changed, leaving the state to Apply.
package quest

import (
	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/vocab"
)

// PointsPerLevel is how many points separate two player levels.
const PointsPerLevel = 100

// Result lists what a state newly earns. Quests appear in completion order.
type Result struct {
	Completed []string
	Badges    []string
	Points    int
}

// Empty reports whether nothing was earned.
func (r Result) Empty() bool {
	return len(r.Completed) == 0 && len(r.Badges) == 0
}

// Evaluate returns the quests of module that state completes and the badges
// they award. Quests whose prerequisites complete during the same evaluation
// are considered too, so one call reaches a fixpoint. Quests are visited in
// declaration order, which makes the result deterministic.
func Evaluate(module *catalog.Module, state *models.GameState) Result {
	var res Result
	done := make(map[string]bool, len(state.CompletedQuests))
	for _, id := range state.CompletedQuests {
		done[id] = true
	}
	badges := make(map[string]bool, len(state.Badges))
	for _, id := range state.Badges {
		badges[id] = true
	}

	for progress := true; progress; {
		progress = false
		for i := range module.Quests {
			q := &module.Quests[i]
			if done[q.ID] || !prerequisitesMet(q, done) || !triggersHold(module, q, state) {
				continue
			}
			done[q.ID] = true
			progress = true
			res.Completed = append(res.Completed, q.ID)
			res.Points += q.Reward.Points
			if b := q.Reward.Badge; b != "" && !badges[b] {
				badges[b] = true
				res.Badges = append(res.Badges, b)
			}
		}
	}
	return res
}

// Apply records res on state: completed quests, badges, points and level.
func Apply(state *models.GameState, res Result) {
	for _, id := range res.Completed {
		state.CompleteQuest(id)
	}
	for _, id := range res.Badges {
		state.AwardBadge(id)
	}
	state.TotalPointsEarned += res.Points
	state.Level = LevelFor(state.TotalPointsEarned)
}

// LevelFor maps total points to a player level, starting at 1.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return 1 + points/PointsPerLevel
}

func prerequisitesMet(q *catalog.Quest, done map[string]bool) bool {
	for _, req := range q.Requires {
		if !done[req] {
			return false
		}
	}
	return true
}

func triggersHold(module *catalog.Module, q *catalog.Quest, state *models.GameState) bool {
	for _, t := range q.Triggers {
		if !Holds(module, t, state) {
			return false
		}
	}
	return true
}

// Holds reports whether a single trigger is satisfied by state.
func Holds(module *catalog.Module, t catalog.Trigger, state *models.GameState) bool {
	switch {
	case t.Visit != "":
		return state.HasVisited(t.Visit)
	case t.Have != "":
		return state.Holds(t.Have)
	case t.ObjectState != nil:
		o, ok := module.Object(t.ObjectState.ID)
		if !ok {
			return false
		}
		return state.ObjectState(o.ID, o.InitialState()) == t.ObjectState.State
	case t.NPCState != nil:
		n, ok := module.NPC(t.NPCState.ID)
		if !ok {
			return false
		}
		return state.NPCState(n.ID, n.InitialState()) == t.NPCState.State
	case t.Flag != "":
		return state.Flags[t.Flag]
	case t.WordsKnown > 0:
		return vocab.CountKnown(state.Vocabulary) >= t.WordsKnown
	case t.WordsUsed > 0:
		return vocab.CountUsed(state.Vocabulary) >= t.WordsUsed
	}
	return false
}
