// Package catalog holds the static world content of each language: modules
// of locations, objects, NPCs, vocabulary, quests and badges. A catalog is
// loaded once per process and is read-only afterwards, so it can be shared
// between goroutines without locking.
package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/tatianab/langquest/internal/vocab"
)

// Language is the root of one language's content.
type Language struct {
	Name         string            `yaml:"name"`
	DisplayName  string            `yaml:"display_name"`
	SystemPrompt string            `yaml:"system_prompt"`
	Articles     []string          `yaml:"articles"`
	Lessons      map[string]string `yaml:"lessons"`
}

// Module is a themed content pack unlocked at a player level.
type Module struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description"`
	UnlockLevel   int           `yaml:"unlock_level"`
	StartLocation string        `yaml:"start_location"`
	Locations     []Location    `yaml:"locations"`
	Objects       []WorldObject `yaml:"objects"`
	NPCs          []NPC         `yaml:"npcs"`
	Vocabulary    []VocabItem   `yaml:"vocabulary"`
	Quests        []Quest       `yaml:"quests"`
	Badges        []Badge       `yaml:"badges"`

	locations map[string]*Location
	objects   map[string]*WorldObject
	npcs      map[string]*NPC
	vocab     map[string]*VocabItem
	quests    map[string]*Quest
	badges    map[string]*Badge
}

// Location is a room of the world graph.
type Location struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Exits       map[string]string `yaml:"exits"` // direction -> location id
}

// ExitDirections returns the exit directions sorted alphabetically.
func (l *Location) ExitDirections() []string {
	dirs := make([]string, 0, len(l.Exits))
	for dir := range l.Exits {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// WorldObject is an object placed in a location. The first entry of States
// is its initial state.
type WorldObject struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Location string   `yaml:"location"`
	States   []string `yaml:"states"`
	Portable bool     `yaml:"portable"`
	Word     string   `yaml:"word"` // vocabulary id
}

// InitialState returns the state an untouched object is in.
func (o *WorldObject) InitialState() string {
	if len(o.States) == 0 {
		return ""
	}
	return o.States[0]
}

// HasState reports whether state is one of the object's allowed states.
func (o *WorldObject) HasState(state string) bool {
	return slices.Contains(o.States, state)
}

// NPC is a character placed in a location.
type NPC struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Location string   `yaml:"location"`
	Persona  string   `yaml:"persona"`
	States   []string `yaml:"states"`
}

// InitialState returns the NPC's starting mood.
func (n *NPC) InitialState() string {
	if len(n.States) == 0 {
		return ""
	}
	return n.States[0]
}

// HasState reports whether state is allowed for the NPC.
func (n *NPC) HasState(state string) bool {
	return slices.Contains(n.States, state)
}

// VocabItem is a word taught by a module. ID is derived from the first target
// form at load time.
type VocabItem struct {
	ID       string   `yaml:"-"`
	Target   []string `yaml:"target"`
	Native   string   `yaml:"native"`
	Location string   `yaml:"location"`
}

// Quest is a goal completed when all triggers hold and all prerequisites are
// complete.
type Quest struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Requires    []string  `yaml:"requires"`
	Triggers    []Trigger `yaml:"triggers"`
	Reward      Reward    `yaml:"reward"`
}

// Reward is granted once when a quest completes.
type Reward struct {
	Points int    `yaml:"points"`
	Badge  string `yaml:"badge"`
}

// Trigger is a single condition over the game state. Exactly one field is set.
type Trigger struct {
	Visit       string      `yaml:"visit,omitempty"`
	Have        string      `yaml:"have,omitempty"`
	ObjectState *StateMatch `yaml:"object_state,omitempty"`
	NPCState    *StateMatch `yaml:"npc_state,omitempty"`
	Flag        string      `yaml:"flag,omitempty"`
	WordsKnown  int         `yaml:"words_known,omitempty"`
	WordsUsed   int         `yaml:"words_used,omitempty"`
}

// StateMatch names an entity and the state it must be in.
type StateMatch struct {
	ID    string `yaml:"id"`
	State string `yaml:"state"`
}

// Badge is a display name for an earned achievement.
type Badge struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

func (m *Module) index() {
	m.locations = make(map[string]*Location, len(m.Locations))
	for i := range m.Locations {
		m.locations[m.Locations[i].ID] = &m.Locations[i]
	}
	m.objects = make(map[string]*WorldObject, len(m.Objects))
	for i := range m.Objects {
		m.objects[m.Objects[i].ID] = &m.Objects[i]
	}
	m.npcs = make(map[string]*NPC, len(m.NPCs))
	for i := range m.NPCs {
		m.npcs[m.NPCs[i].ID] = &m.NPCs[i]
	}
	m.vocab = make(map[string]*VocabItem, len(m.Vocabulary))
	for i := range m.Vocabulary {
		m.vocab[m.Vocabulary[i].ID] = &m.Vocabulary[i]
	}
	m.quests = make(map[string]*Quest, len(m.Quests))
	for i := range m.Quests {
		m.quests[m.Quests[i].ID] = &m.Quests[i]
	}
	m.badges = make(map[string]*Badge, len(m.Badges))
	for i := range m.Badges {
		m.badges[m.Badges[i].ID] = &m.Badges[i]
	}
}

func (m *Module) Location(id string) (*Location, bool) {
	l, ok := m.locations[id]
	return l, ok
}

func (m *Module) Object(id string) (*WorldObject, bool) {
	o, ok := m.objects[id]
	return o, ok
}

func (m *Module) NPC(id string) (*NPC, bool) {
	n, ok := m.npcs[id]
	return n, ok
}

func (m *Module) Vocab(id string) (*VocabItem, bool) {
	v, ok := m.vocab[id]
	return v, ok
}

func (m *Module) Quest(id string) (*Quest, bool) {
	q, ok := m.quests[id]
	return q, ok
}

func (m *Module) Badge(id string) (*Badge, bool) {
	b, ok := m.badges[id]
	return b, ok
}

// NPCsAt returns the NPCs placed in a location, in declaration order.
func (m *Module) NPCsAt(location string) []*NPC {
	var out []*NPC
	for i := range m.NPCs {
		if m.NPCs[i].Location == location {
			out = append(out, &m.NPCs[i])
		}
	}
	return out
}

// VocabAt returns the vocabulary tied to a location, in declaration order.
func (m *Module) VocabAt(location string) []*VocabItem {
	var out []*VocabItem
	for i := range m.Vocabulary {
		if m.Vocabulary[i].Location == location {
			out = append(out, &m.Vocabulary[i])
		}
	}
	return out
}

// Catalog is the loaded content of one language.
type Catalog struct {
	Language
	modules []*Module
	byID    map[string]*Module
}

// Module looks up a module by id.
func (c *Catalog) Module(id string) (*Module, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Modules returns the modules ordered by unlock level, then id.
func (c *Catalog) Modules() []*Module {
	return c.modules
}

// Lesson returns the canned explanation for a /learn topic. Topics match
// ignoring case and accents.
func (c *Catalog) Lesson(topic string) (string, bool) {
	if text, ok := c.Lessons[topic]; ok {
		return text, true
	}
	want := vocab.Fold(strings.TrimSpace(topic))
	for name, text := range c.Lessons {
		if vocab.Fold(name) == want {
			return text, true
		}
	}
	return "", false
}

// RelatedLesson returns the first lesson, by name, sharing a word of three or
// more letters with topic.
func (c *Catalog) RelatedLesson(topic string) (name, text string, ok bool) {
	want := make(map[string]bool)
	for _, w := range vocab.Tokens(topic) {
		if len([]rune(w)) >= 3 {
			want[w] = true
		}
	}
	names := make([]string, 0, len(c.Lessons))
	for n := range c.Lessons {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		for _, w := range vocab.Tokens(n) {
			if want[w] {
				return n, c.Lessons[n], true
			}
		}
	}
	return "", "", false
}

// Registry maps language names to their catalogs.
type Registry struct {
	catalogs map[string]*Catalog
}

// NewRegistry builds a registry from already validated catalogs.
func NewRegistry(catalogs ...*Catalog) *Registry {
	r := &Registry{catalogs: make(map[string]*Catalog, len(catalogs))}
	for _, c := range catalogs {
		r.catalogs[c.Name] = c
	}
	return r
}

// Get returns the catalog of a language.
func (r *Registry) Get(language string) (*Catalog, bool) {
	c, ok := r.catalogs[language]
	return c, ok
}

// Languages lists the loaded languages alphabetically.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.catalogs))
	for name := range r.catalogs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
