package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/quest"
	"github.com/tatianab/langquest/internal/vocab"
)

func (e *Engine) project(s *session, narrative string, res quest.Result, now time.Time) *models.GameView {
	mod, st := s.module, s.state
	view := &models.GameView{
		Narrative: narrative,
		Inventory: []models.ItemView{},
		DueCount:  vocab.DueCount(st.Vocabulary, now),
		Level:     st.Level,
		Points:    st.TotalPointsEarned,
		Module:    mod.ID,
		Completed: slices.Clone(st.CompletedQuests),
		Grammar:   maps.Clone(st.GrammarStats),
	}

	if loc, ok := mod.Location(st.Location); ok {
		view.Location = models.LocationView{
			ID:          loc.ID,
			Name:        loc.Name,
			Description: loc.Description,
			Exits:       []models.ExitView{},
			Objects:     []models.ItemView{},
			NPCs:        []models.NPCView{},
		}
		for _, dir := range loc.ExitDirections() {
			exit := models.ExitView{Direction: dir}
			if dest, ok := mod.Location(loc.Exits[dir]); ok && st.HasVisited(dest.ID) {
				exit.Name = dest.Name
			}
			view.Location.Exits = append(view.Location.Exits, exit)
		}
		for _, o := range objectsAt(mod, st, loc.ID) {
			view.Location.Objects = append(view.Location.Objects, models.ItemView{
				ID:    o.ID,
				Name:  o.Name,
				State: st.ObjectState(o.ID, o.InitialState()),
			})
		}
		for _, n := range mod.NPCsAt(loc.ID) {
			view.Location.NPCs = append(view.Location.NPCs, models.NPCView{
				ID:    n.ID,
				Name:  n.Name,
				State: st.NPCState(n.ID, n.InitialState()),
			})
		}
	}

	for _, id := range st.Inventory {
		item := models.ItemView{ID: id, Name: carriedName(mod, id)}
		if o, ok := mod.Object(id); ok {
			item.State = st.ObjectState(o.ID, o.InitialState())
		}
		view.Inventory = append(view.Inventory, item)
	}

	for _, id := range res.Completed {
		if q, ok := mod.Quest(id); ok {
			view.NewQuests = append(view.NewQuests, models.QuestNotice{ID: q.ID, Title: q.Title, Points: q.Reward.Points})
		}
	}
	for _, id := range res.Badges {
		if b, ok := mod.Badge(id); ok {
			view.NewBadges = append(view.NewBadges, models.BadgeNotice{ID: b.ID, Name: b.Name})
		}
	}
	return view
}
