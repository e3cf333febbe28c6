package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, []string{"spanish"}, reg.Languages())

	c, ok := reg.Get("spanish")
	require.True(t, ok)
	require.Len(t, c.Modules(), 2)
	assert.Equal(t, "home", c.Modules()[0].ID)
	assert.Equal(t, "market", c.Modules()[1].ID)

	home, ok := c.Module("home")
	require.True(t, ok)
	assert.Equal(t, "entrada", home.StartLocation)

	casa, ok := home.Vocab("casa")
	require.True(t, ok)
	assert.Equal(t, "the house", casa.Native)
	assert.Equal(t, "entrada", casa.Location)

	start, _ := home.Location("entrada")
	assert.Equal(t, []string{"norte", "sur"}, start.ExitDirections())

	_, ok = c.Lesson("saludos")
	assert.True(t, ok)
}

func baseModule() *Module {
	return &Module{
		ID:            "test",
		StartLocation: "a",
		Locations: []Location{
			{ID: "a", Exits: map[string]string{"east": "b"}},
			{ID: "b", Exits: map[string]string{"west": "a"}},
		},
		Objects:    []WorldObject{{ID: "box", Location: "a", States: []string{"closed", "open"}}},
		Vocabulary: []VocabItem{{Target: []string{"la caja"}, Native: "the box"}},
		Quests: []Quest{
			{ID: "q1", Triggers: []Trigger{{Visit: "b"}}},
			{ID: "q2", Requires: []string{"q1"}, Triggers: []Trigger{{ObjectState: &StateMatch{ID: "box", State: "open"}}}},
		},
	}
}

func TestRelatedLesson(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)
	c, _ := reg.Get("spanish")

	name, text, ok := c.RelatedLesson("estar cansado")
	require.True(t, ok)
	assert.Equal(t, "ser y estar", name)
	assert.NotEmpty(t, text)

	_, _, ok = c.RelatedLesson("el subjuntivo")
	assert.False(t, ok)
	_, _, ok = c.RelatedLesson("y")
	assert.False(t, ok, "short words do not match")
}

func TestNewCatalog_Valid(t *testing.T) {
	c, err := NewCatalog(Language{Name: "spanish", Articles: []string{"la"}}, baseModule())
	require.NoError(t, err)
	m, ok := c.Module("test")
	require.True(t, ok)
	_, ok = m.Vocab("caja")
	assert.True(t, ok)
}

func TestNewCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Module)
		want   string
	}{
		{
			name: "prerequisite cycle",
			mutate: func(m *Module) {
				m.Quests[0].Requires = []string{"q2"}
			},
			want: "cycle",
		},
		{
			name: "self prerequisite",
			mutate: func(m *Module) {
				m.Quests[0].Requires = []string{"q1"}
			},
			want: "cycle",
		},
		{
			name: "exit to unknown location",
			mutate: func(m *Module) {
				m.Locations[0].Exits["north"] = "nowhere"
			},
			want: "unknown location \"nowhere\"",
		},
		{
			name: "unknown prerequisite",
			mutate: func(m *Module) {
				m.Quests[1].Requires = []string{"q9"}
			},
			want: "unknown prerequisite",
		},
		{
			name: "trigger with two conditions",
			mutate: func(m *Module) {
				m.Quests[0].Triggers = []Trigger{{Visit: "a", Flag: "x"}}
			},
			want: "exactly one condition",
		},
		{
			name: "missing start location",
			mutate: func(m *Module) {
				m.StartLocation = "z"
			},
			want: "start location",
		},
		{
			name: "undeclared badge",
			mutate: func(m *Module) {
				m.Quests[0].Reward.Badge = "ghost"
			},
			want: "unknown badge",
		},
		{
			name: "object state trigger with unknown state",
			mutate: func(m *Module) {
				m.Quests[1].Triggers[0].ObjectState.State = "melted"
			},
			want: "no state",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := baseModule()
			tt.mutate(m)
			_, err := NewCatalog(Language{Name: "spanish"}, m)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"french/language.yaml": {Data: []byte("name: french\narticles: [le, la, les, \"l'\"]\n")},
		"french/modules/cafe.yaml": {Data: []byte(`
id: cafe
unlock_level: 1
start_location: comptoir
locations:
  - {id: comptoir, name: Le comptoir, exits: {}}
vocabulary:
  - {target: ["l'eau"], native: water}
quests:
  - {id: boire, triggers: [{flag: a_bu}], reward: {points: 5}}
`)},
	}

	reg, err := LoadFS(fsys)
	require.NoError(t, err)
	c, ok := reg.Get("french")
	require.True(t, ok)
	m, ok := c.Module("cafe")
	require.True(t, ok)
	_, ok = m.Vocab("eau")
	assert.True(t, ok)

	_, err = LoadFS(fstest.MapFS{})
	assert.Error(t, err)
}

func TestValidFlag(t *testing.T) {
	assert.True(t, ValidFlag("saludo_abuela"))
	assert.False(t, ValidFlag("Saludo"))
	assert.False(t, ValidFlag(""))
	assert.False(t, ValidFlag("a b"))
}
