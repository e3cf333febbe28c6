package engine

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/vocab"
)

//go:embed prompts/process_turn.txt
var processTurnPrompt string

//go:embed prompts/summarize_history.txt
var summarizeHistoryPrompt string

var (
	processTurnTemplate      = template.Must(template.New("process_turn").Parse(processTurnPrompt))
	summarizeHistoryTemplate = template.Must(template.New("summarize_history").Parse(summarizeHistoryPrompt))
)

type exitData struct {
	Direction string
	ID        string
	Name      string // empty for unvisited destinations
}

type objectData struct {
	ID       string
	Name     string
	State    string
	States   string
	Portable bool
}

type npcData struct {
	ID      string
	Name    string
	Persona string
	State   string
	States  string
}

type turnData struct {
	Language          string
	ModuleName        string
	ModuleDescription string
	Location          *catalog.Location
	Exits             []exitData
	Objects           []objectData
	NPCs              []npcData
	Inventory         []objectData
	Flags             string
	Quests            []string
	Words             string
	Summary           string
	History           []models.HistoryEntry
	MaxAward          int
}

// buildTurnContext renders what the narrator may know this turn. Only the
// current location, its exits, and what is present or carried are described;
// unvisited destinations appear as bare directions.
func buildTurnContext(s *session, window, maxAward int, now time.Time) (string, error) {
	mod, st := s.module, s.state
	loc, ok := mod.Location(st.Location)
	if !ok {
		return "", &UnknownEntityError{Kind: "location", ID: st.Location}
	}

	data := turnData{
		Language:          languageName(s.catalog),
		ModuleName:        mod.Name,
		ModuleDescription: mod.Description,
		Location:          loc,
		Summary:           st.History.Summary,
		MaxAward:          maxAward,
	}

	for _, dir := range loc.ExitDirections() {
		exit := exitData{Direction: dir}
		if dest, ok := mod.Location(loc.Exits[dir]); ok && st.HasVisited(dest.ID) {
			exit.ID, exit.Name = dest.ID, dest.Name
		}
		data.Exits = append(data.Exits, exit)
	}

	for _, o := range objectsAt(mod, st, loc.ID) {
		data.Objects = append(data.Objects, objectData{
			ID:       o.ID,
			Name:     o.Name,
			State:    st.ObjectState(o.ID, o.InitialState()),
			States:   strings.Join(o.States, ", "),
			Portable: o.Portable,
		})
	}
	for _, n := range mod.NPCsAt(loc.ID) {
		data.NPCs = append(data.NPCs, npcData{
			ID:      n.ID,
			Name:    n.Name,
			Persona: n.Persona,
			State:   st.NPCState(n.ID, n.InitialState()),
			States:  strings.Join(n.States, ", "),
		})
	}
	for _, id := range st.Inventory {
		data.Inventory = append(data.Inventory, objectData{ID: id, Name: carriedName(mod, id)})
	}

	var flags []string
	for f, v := range st.Flags {
		if v {
			flags = append(flags, f)
		}
	}
	slices.Sort(flags)
	data.Flags = strings.Join(flags, ", ")

	data.Quests = openQuests(mod, st)
	data.Words = focusWords(s, loc.ID, now)

	entries := st.History.Entries
	if len(entries) > window {
		entries = entries[len(entries)-window:]
	}
	data.History = entries

	var buf bytes.Buffer
	if err := processTurnTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func languageName(cat *catalog.Catalog) string {
	if cat.DisplayName != "" {
		return cat.DisplayName
	}
	return cat.Name
}

func objectsAt(mod *catalog.Module, st *models.GameState, location string) []*catalog.WorldObject {
	var out []*catalog.WorldObject
	for i := range mod.Objects {
		o := &mod.Objects[i]
		if st.ObjectLocation(o.ID, o.Location) == location {
			out = append(out, o)
		}
	}
	return out
}

// openQuests lists the quests the player can currently work on, with the
// story flags they wait for.
func openQuests(mod *catalog.Module, st *models.GameState) []string {
	var out []string
	for _, q := range mod.Quests {
		if st.IsQuestCompleted(q.ID) || !allCompleted(q.Requires, st) {
			continue
		}
		line := q.Title
		var flags []string
		for _, t := range q.Triggers {
			if t.Flag != "" && !st.Flags[t.Flag] {
				flags = append(flags, t.Flag)
			}
		}
		if len(flags) > 0 {
			line += fmt.Sprintf(" (when it happens, set flag %s)", strings.Join(flags, ", "))
		}
		out = append(out, line)
	}
	return out
}

func allCompleted(ids []string, st *models.GameState) bool {
	for _, id := range ids {
		if !st.IsQuestCompleted(id) {
			return false
		}
	}
	return true
}

// focusWords picks the vocabulary of the current location plus words due for
// review that belong to this module.
func focusWords(s *session, location string, now time.Time) string {
	seen := make(map[string]bool)
	var words []string
	add := func(v *catalog.VocabItem) {
		if seen[v.ID] || len(v.Target) == 0 {
			return
		}
		seen[v.ID] = true
		words = append(words, fmt.Sprintf("%s (%s)", v.Target[0], v.Native))
	}
	for _, v := range s.module.VocabAt(location) {
		add(v)
	}
	for wp := range vocab.SelectDue(s.state.Vocabulary, now, 5) {
		if v, ok := s.module.Vocab(wp.WordID); ok && (v.Location == "" || v.Location == location || s.state.HasVisited(v.Location)) {
			add(v)
		}
	}
	return strings.Join(words, ", ")
}

// compactHistory folds older turns into the running summary once the history
// grows past twice the context window. A failed summary is logged and the old
// turns are dropped anyway.
func (e *Engine) compactHistory(ctx context.Context, s *session, deadline time.Time) {
	h := &s.state.History
	window := e.opts.HistoryWindow
	if len(h.Entries) <= 2*window {
		return
	}
	old := h.Entries[:len(h.Entries)-window]
	keep := slices.Clone(h.Entries[len(h.Entries)-window:])

	var events strings.Builder
	for _, entry := range old {
		fmt.Fprintf(&events, "Player: %s\nNarrator: %s\n", entry.PlayerAction, entry.Narrative)
	}
	var buf bytes.Buffer
	err := summarizeHistoryTemplate.Execute(&buf, struct {
		CurrentSummary string
		NewEvents      string
	}{h.Summary, events.String()})
	if err == nil {
		var summary string
		summary, err = e.generate(ctx, deadline, "", buf.String(), "")
		if err == nil {
			h.Summary = strings.TrimSpace(summary)
		}
	}
	if err != nil {
		e.log.Warn("failed to summarize history", "profile", s.state.Profile, "error", err)
	}
	h.Entries = keep
}
