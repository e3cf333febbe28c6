package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/langquest/internal/vocab"
)

//go:embed content
var content embed.FS

// Builtin loads the content shipped with the binary.
func Builtin() (*Registry, error) {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// Load reads every language under dir.
func Load(dir string) (*Registry, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads <language>/language.yaml and <language>/modules/*.yaml for
// every language directory in fsys.
func LoadFS(fsys fs.FS) (*Registry, error) {
	langFiles, err := fs.Glob(fsys, "*/language.yaml")
	if err != nil {
		return nil, err
	}
	if len(langFiles) == 0 {
		return nil, errors.New("no language.yaml found")
	}

	var catalogs []*Catalog
	for _, langFile := range langFiles {
		c, err := loadLanguage(fsys, path.Dir(langFile))
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}
	return NewRegistry(catalogs...), nil
}

func loadLanguage(fsys fs.FS, dir string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, "language.yaml"))
	if err != nil {
		return nil, err
	}
	c := &Catalog{byID: make(map[string]*Module)}
	if err := yaml.Unmarshal(data, &c.Language); err != nil {
		return nil, fmt.Errorf("parse %s/language.yaml: %w", dir, err)
	}
	if c.Name == "" {
		c.Name = dir
	}

	moduleFiles, err := fs.Glob(fsys, path.Join(dir, "modules", "*.yaml"))
	if err != nil {
		return nil, err
	}
	for _, file := range moduleFiles {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		m := &Module{}
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		if err := c.add(m); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
	}
	if len(c.modules) == 0 {
		return nil, fmt.Errorf("language %s has no modules", c.Name)
	}
	sort.SliceStable(c.modules, func(i, j int) bool {
		if c.modules[i].UnlockLevel != c.modules[j].UnlockLevel {
			return c.modules[i].UnlockLevel < c.modules[j].UnlockLevel
		}
		return c.modules[i].ID < c.modules[j].ID
	})
	return c, nil
}

// NewCatalog validates and indexes modules built in code.
func NewCatalog(lang Language, modules ...*Module) (*Catalog, error) {
	c := &Catalog{Language: lang, byID: make(map[string]*Module)}
	for _, m := range modules {
		if err := c.add(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(m *Module) error {
	if m.ID == "" {
		return errors.New("module id is required")
	}
	if _, dup := c.byID[m.ID]; dup {
		return fmt.Errorf("duplicate module %q", m.ID)
	}
	for i := range m.Vocabulary {
		if len(m.Vocabulary[i].Target) > 0 {
			m.Vocabulary[i].ID = vocab.WordID(m.Vocabulary[i].Target[0], c.Articles)
		}
	}
	m.index()
	if err := m.validate(); err != nil {
		return fmt.Errorf("module %s: %w", m.ID, err)
	}
	c.modules = append(c.modules, m)
	c.byID[m.ID] = m
	return nil
}

var flagPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidFlag reports whether name may be used as a world flag.
func ValidFlag(name string) bool {
	return flagPattern.MatchString(name)
}

func (m *Module) validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	dupes := func(kind string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" {
				fail("%s with empty id", kind)
				continue
			}
			if seen[id] {
				fail("duplicate %s %q", kind, id)
			}
			seen[id] = true
		}
	}
	dupes("location", ids(m.Locations, func(l Location) string { return l.ID }))
	dupes("object", ids(m.Objects, func(o WorldObject) string { return o.ID }))
	dupes("npc", ids(m.NPCs, func(n NPC) string { return n.ID }))
	dupes("word", ids(m.Vocabulary, func(v VocabItem) string { return v.ID }))
	dupes("quest", ids(m.Quests, func(q Quest) string { return q.ID }))
	dupes("badge", ids(m.Badges, func(b Badge) string { return b.ID }))

	if _, ok := m.Location(m.StartLocation); !ok {
		fail("start location %q does not exist", m.StartLocation)
	}
	for _, l := range m.Locations {
		for dir, to := range l.Exits {
			if _, ok := m.Location(to); !ok {
				fail("location %s: exit %s leads to unknown location %q", l.ID, dir, to)
			}
		}
	}
	for _, o := range m.Objects {
		if _, ok := m.Location(o.Location); !ok {
			fail("object %s: unknown location %q", o.ID, o.Location)
		}
		if o.Word != "" {
			if _, ok := m.Vocab(o.Word); !ok {
				fail("object %s: unknown word %q", o.ID, o.Word)
			}
		}
	}
	for _, n := range m.NPCs {
		if _, ok := m.Location(n.Location); !ok {
			fail("npc %s: unknown location %q", n.ID, n.Location)
		}
	}
	for _, v := range m.Vocabulary {
		if len(v.Target) == 0 {
			fail("vocabulary entry %q has no target form", v.Native)
		}
		if v.Location != "" {
			if _, ok := m.Location(v.Location); !ok {
				fail("word %s: unknown location %q", v.ID, v.Location)
			}
		}
	}
	for _, q := range m.Quests {
		for _, req := range q.Requires {
			if _, ok := m.Quest(req); !ok {
				fail("quest %s: unknown prerequisite %q", q.ID, req)
			}
		}
		if q.Reward.Badge != "" {
			if _, ok := m.Badge(q.Reward.Badge); !ok {
				fail("quest %s: unknown badge %q", q.ID, q.Reward.Badge)
			}
		}
		if len(q.Triggers) == 0 {
			fail("quest %s has no triggers", q.ID)
		}
		for _, t := range q.Triggers {
			if err := m.validateTrigger(t); err != nil {
				fail("quest %s: %w", q.ID, err)
			}
		}
	}
	if cycle := m.prerequisiteCycle(); cycle != nil {
		fail("quest prerequisites form a cycle: %v", cycle)
	}
	return errors.Join(errs...)
}

func (m *Module) validateTrigger(t Trigger) error {
	set := 0
	if t.Visit != "" {
		set++
		if _, ok := m.Location(t.Visit); !ok {
			return fmt.Errorf("visit trigger: unknown location %q", t.Visit)
		}
	}
	if t.Have != "" {
		set++
		if _, ok := m.Object(t.Have); !ok {
			return fmt.Errorf("have trigger: unknown object %q", t.Have)
		}
	}
	if t.ObjectState != nil {
		set++
		o, ok := m.Object(t.ObjectState.ID)
		if !ok {
			return fmt.Errorf("object_state trigger: unknown object %q", t.ObjectState.ID)
		}
		if !o.HasState(t.ObjectState.State) {
			return fmt.Errorf("object_state trigger: %s has no state %q", o.ID, t.ObjectState.State)
		}
	}
	if t.NPCState != nil {
		set++
		n, ok := m.NPC(t.NPCState.ID)
		if !ok {
			return fmt.Errorf("npc_state trigger: unknown npc %q", t.NPCState.ID)
		}
		if !n.HasState(t.NPCState.State) {
			return fmt.Errorf("npc_state trigger: %s has no state %q", n.ID, t.NPCState.State)
		}
	}
	if t.Flag != "" {
		set++
		if !ValidFlag(t.Flag) {
			return fmt.Errorf("flag trigger: invalid flag %q", t.Flag)
		}
	}
	if t.WordsKnown > 0 {
		set++
	}
	if t.WordsUsed > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("trigger must set exactly one condition, got %d", set)
	}
	return nil
}

// prerequisiteCycle returns the quest ids of a prerequisite cycle, or nil.
func (m *Module) prerequisiteCycle() []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	color := make(map[string]int, len(m.Quests))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		switch color[id] {
		case inProgress:
			for i, s := range stack {
				if s == id {
					cycle = append(append([]string(nil), stack[i:]...), id)
				}
			}
			return true
		case done:
			return false
		}
		color[id] = inProgress
		stack = append(stack, id)
		if q, ok := m.Quest(id); ok {
			for _, req := range q.Requires {
				if visit(req) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = done
		return false
	}

	for _, q := range m.Quests {
		if visit(q.ID) {
			return cycle
		}
	}
	return nil
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = id(item)
	}
	return out
}
