package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/engine"
	"github.com/tatianab/langquest/internal/store"
)

type scriptedOracle struct {
	reply string
	err   error
}

func (o *scriptedOracle) Generate(context.Context, string, string, string) (string, error) {
	return o.reply, o.err
}

func newTestModel(t *testing.T, o *scriptedOracle) model {
	t.Helper()
	reg, err := catalog.Builtin()
	require.NoError(t, err)
	cat, ok := reg.Get("spanish")
	require.True(t, ok)
	eng := engine.New(reg, store.NewMemoryStore(), o, nil, engine.Options{})
	return NewModel(eng, cat, "")
}

// enter types input and presses Enter, running the resulting command once.
func enter(t *testing.T, m model, input string) model {
	t.Helper()
	m.textInput.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = m.Update(msg)
			m = next.(model)
		}
	}
	return m
}

func start(t *testing.T, o *scriptedOracle) model {
	t.Helper()
	m := newTestModel(t, o)
	m = enter(t, m, "ana")
	require.Equal(t, stateModule, m.state)
	assert.Equal(t, "ana", m.profile)

	m = enter(t, m, "1")
	require.Equal(t, statePlaying, m.state, "error: %v", m.err)
	require.NotNil(t, m.view)
	assert.Equal(t, "entrada", m.view.Location.ID)
	return m
}

func TestStartAndPlay(t *testing.T) {
	o := &scriptedOracle{reply: "Miras la entrada.\n```yaml\neffects:\n  - move: norte\n```"}
	m := start(t, o)

	m = enter(t, m, "Voy al norte")
	require.Equal(t, statePlaying, m.state)
	assert.Equal(t, "sala", m.view.Location.ID)
	assert.Contains(t, m.gameLog, "Miras la entrada.")
	assert.Contains(t, m.gameLog, "Voy al norte")
	assert.Contains(t, m.View(), "LOCATION")
}

func TestOracleFailureKeepsPlaying(t *testing.T) {
	o := &scriptedOracle{reply: "Hola."}
	m := start(t, o)

	o.err = assert.AnError
	m = enter(t, m, "hola")
	assert.Equal(t, statePlaying, m.state)
	assert.Contains(t, m.gameLog, "not answering")
}

func TestModuleLockedIsShown(t *testing.T) {
	m := start(t, &scriptedOracle{reply: "Hola."})

	m = enter(t, m, "/module market")
	assert.Equal(t, statePlaying, m.state)
	assert.Equal(t, "home", m.view.Module)
	assert.Contains(t, m.gameLog, "market")
}

func TestInvalidNameAsksAgain(t *testing.T) {
	m := newTestModel(t, &scriptedOracle{reply: "Hola."})
	m = enter(t, m, "Ana María")
	m = enter(t, m, "1")
	assert.Equal(t, stateProfile, m.state)
	assert.Nil(t, m.err)
	assert.Empty(t, m.profile)
	assert.Contains(t, m.gameLog, "Ana María")

	m = enter(t, m, "ana_maria")
	m = enter(t, m, "1")
	assert.Equal(t, statePlaying, m.state)
}

func TestReminderFiltersProfile(t *testing.T) {
	m := start(t, &scriptedOracle{reply: "Hola."})
	before := m.gameLog

	next, _ := m.Update(ReminderMsg{Profile: "ben", Language: "spanish", Due: 3})
	m = next.(model)
	assert.Equal(t, before, m.gameLog)

	next, _ = m.Update(ReminderMsg{Profile: "ana", Language: "spanish", Due: 3})
	m = next.(model)
	assert.Equal(t, 3, m.view.DueCount)
	assert.Contains(t, m.gameLog, "3 words are ready")
}

func TestReviewQueue(t *testing.T) {
	m := start(t, &scriptedOracle{reply: "Hola."})
	due := m.view.DueCount
	require.Positive(t, due, "words met at the start are due")

	m = enter(t, m, "/due")
	require.Equal(t, stateReview, m.state)
	first := m.cards[0]

	m = enter(t, m, "9")
	assert.Equal(t, stateReview, m.state, "out of range ratings are ignored")

	m = enter(t, m, "4")
	assert.Contains(t, m.gameLog, first.NativeForm+", next review in 1 day(s)")
	assert.Equal(t, due-1, m.view.DueCount)

	if m.state == stateReview {
		m = enter(t, m, "/skip")
	}
	assert.Equal(t, statePlaying, m.state)
	assert.Empty(t, m.cards)
}

func TestQuit(t *testing.T) {
	m := start(t, &scriptedOracle{reply: "Hola."})
	m.textInput.SetValue("/quit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
