package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/engine"
	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/vocab"
)

type sessionState int

const (
	stateProfile sessionState = iota
	stateModule
	stateLoading
	statePlaying
	stateReview
	stateError
)

type model struct {
	state     sessionState
	engine    *engine.Engine
	catalog   *catalog.Catalog
	language  string
	profile   string
	view      *models.GameView
	cards     []vocab.WordProgress
	textInput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	err       error
	gameLog   string
	width     int
	height    int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87D787")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D7875F"))

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

// NewModel returns the game screen for language. If profile is empty the
// player is asked for a name first.
func NewModel(eng *engine.Engine, cat *catalog.Catalog, profile string) model {
	ti := textinput.New()
	ti.Placeholder = "Your name..."
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := model{
		state:     stateProfile,
		engine:    eng,
		catalog:   cat,
		language:  cat.Name,
		textInput: ti,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
	}
	if profile != "" {
		m.profile = profile
		m.state = stateModule
		m.textInput.Placeholder = "Module number..."
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// ReminderMsg tells the player that words are waiting for review.
type ReminderMsg struct {
	Profile  string
	Language string
	Due      int
}

type viewMsg struct {
	view  *models.GameView
	input string
	err   error
}

type dueMsg struct {
	due *engine.DueList
	err error
}

type reviewedMsg struct {
	card   vocab.WordProgress
	result *engine.ReviewResult
	err    error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit(strings.TrimSpace(m.textInput.Value()))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.70)
		m.viewport.Height = max(1, msg.Height-6)
		m.viewport.SetContent(m.gameLog)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case viewMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		first := m.view == nil
		m.view = msg.view
		m.state = statePlaying
		m.textInput.Placeholder = "What do you do?"
		if first {
			m.appendLog(gameStyle.Bold(true).Render(msg.view.Location.Name))
		}
		m.appendLog(gameStyle.Width(m.logWidth()).Render(msg.view.Narrative))
		for _, q := range msg.view.NewQuests {
			m.appendLog(noticeStyle.Render(fmt.Sprintf("Quest complete: %s (+%d)", q.Title, q.Points)))
		}
		for _, b := range msg.view.NewBadges {
			m.appendLog(noticeStyle.Render("Badge earned: " + b.Name))
		}
		return m, nil

	case dueMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		if len(msg.due.Cards) == 0 {
			m.appendLog(helpStyle.Render(fmt.Sprintf("Nothing to review. %d words learning, %d known.", msg.due.Stats.Learning, msg.due.Stats.Known)))
			m.state = statePlaying
			return m, nil
		}
		m.cards = msg.due.Cards
		m.state = stateReview
		m.showCard()
		return m, nil

	case reviewedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.appendLog(fmt.Sprintf("%s = %s, next review in %d day(s)", cardWord(msg.card), msg.card.NativeForm, msg.result.SRSInterval))
		if m.view != nil {
			m.view.DueCount = max(0, m.view.DueCount-1)
		}
		if len(m.cards) == 0 {
			m.state = statePlaying
			m.textInput.Placeholder = "What do you do?"
			return m, nil
		}
		m.state = stateReview
		m.showCard()
		return m, nil

	case ReminderMsg:
		if msg.Profile == m.profile && msg.Language == m.language && m.state == statePlaying {
			if m.view != nil {
				m.view.DueCount = msg.Due
			}
			m.appendLog(helpStyle.Render(fmt.Sprintf("%d words are ready for review. Type /due to practise.", msg.Due)))
		}
		return m, nil
	}

	if m.state != stateLoading && m.state != stateError {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) submit(input string) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateProfile:
		if input == "" {
			return m, nil
		}
		m.profile = input
		m.textInput.Reset()
		m.textInput.Placeholder = "Module number..."
		m.state = stateModule
		return m, nil

	case stateModule:
		mods := m.catalog.Modules()
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(mods) {
			n = 1
		}
		m.textInput.Reset()
		m.state = stateLoading
		return m, m.initSession(mods[n-1].ID)

	case stateReview:
		if input == "/skip" {
			m.cards = nil
			m.state = statePlaying
			m.textInput.Reset()
			m.textInput.Placeholder = "What do you do?"
			return m, nil
		}
		q, err := strconv.Atoi(input)
		if err != nil || q < 0 || q > 5 {
			return m, nil
		}
		card := m.cards[0]
		m.cards = m.cards[1:]
		m.textInput.Reset()
		m.state = stateLoading
		return m, m.review(card, q)

	case statePlaying:
		if input == "" {
			return m, nil
		}
		m.textInput.Reset()
		m.appendLog(userStyle.Width(m.logWidth()).Render("> " + input))

		switch {
		case input == "/quit":
			return m, tea.Quit
		case input == "/due":
			m.state = stateLoading
			return m, m.listDue()
		case strings.HasPrefix(input, "/module "):
			m.state = stateLoading
			return m, m.initSession(strings.TrimSpace(strings.TrimPrefix(input, "/module ")))
		}
		m.state = stateLoading
		return m, m.playTurn(input)
	}
	return m, nil
}

func (m model) fail(err error) (tea.Model, tea.Cmd) {
	switch engine.CodeOf(err) {
	case engine.CodeOracleTimeout, engine.CodeOracleUnavailable:
		m.appendLog(warnStyle.Render("The narrator is not answering. Your last message was not used, try again."))
	case engine.CodeModuleLocked, engine.CodeUnknownEntity, engine.CodeInvalidInput, engine.CodeUnknownWord:
		m.appendLog(warnStyle.Render(err.Error()))
	default:
		m.err = err
		m.state = stateError
		return m, nil
	}
	switch {
	case m.view != nil:
		m.state = statePlaying
	case engine.CodeOf(err) == engine.CodeInvalidInput:
		m.profile = ""
		m.state = stateProfile
		m.textInput.Placeholder = "Your name..."
	default:
		m.state = stateModule
	}
	return m, nil
}

func (m *model) showCard() {
	m.appendLog(titleStyle.Render("REVIEW") + "  " + cardWord(m.cards[0]))
	m.textInput.Placeholder = "How well did you remember it? 0-5, or /skip"
}

func cardWord(wp vocab.WordProgress) string {
	if len(wp.TargetForms) > 0 {
		return wp.TargetForms[0]
	}
	return wp.WordID
}

func (m *model) appendLog(s string) {
	m.gameLog += s + "\n\n"
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.70)
}

func (m model) View() string {
	var s string

	switch m.state {
	case stateProfile:
		s = fmt.Sprintf("Welcome to LangQuest (%s)!\n\n%s\n\n%s",
			m.catalog.DisplayName, "What is your name?", m.textInput.View())

	case stateModule:
		var b strings.Builder
		fmt.Fprintf(&b, "Hello, %s! Choose where to play:\n\n", m.profile)
		for i, mod := range m.catalog.Modules() {
			fmt.Fprintf(&b, "  %d. %s (level %d)\n", i+1, mod.Name, mod.UnlockLevel)
		}
		s = b.String() + "\n" + m.textInput.View()

	case stateLoading:
		if m.view == nil {
			s = fmt.Sprintf("\n  %s Loading your game...\n", m.spinner.View())
			break
		}
		s = m.playingView(m.spinner.View() + " ...")

	case statePlaying, stateReview:
		s = m.playingView(m.textInput.View())

	case stateError:
		s = fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.", m.err)
	}

	if m.view == nil && m.gameLog != "" && (m.state == stateProfile || m.state == stateModule) {
		s += "\n\n" + strings.TrimSpace(m.gameLog)
	}

	return "\n" + s + "\n"
}

func (m model) playingView(input string) string {
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderState())
	help := helpStyle.Render("Commands: /learn <topic>, /due, /module <id>, /quit, or just type in " + m.catalog.DisplayName + ".")
	return lipgloss.JoinVertical(lipgloss.Left, mainView, "\n"+input, "\n"+help)
}

func (m model) renderState() string {
	v := m.view
	if v == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("LOCATION") + "\n" + v.Location.Name + "\n")
	for _, exit := range v.Location.Exits {
		name := exit.Name
		if name == "" {
			name = "?"
		}
		fmt.Fprintf(&b, "  %s: %s\n", exit.Direction, name)
	}
	for _, o := range v.Location.Objects {
		b.WriteString("  · " + itemLabel(o) + "\n")
	}
	for _, n := range v.Location.NPCs {
		b.WriteString("  @ " + n.Name + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("PROGRESS") + "\n")
	fmt.Fprintf(&b, "Level %d, %d points\nWords due: %d\nQuests done: %d\n", v.Level, v.Points, v.DueCount, len(v.Completed))

	b.WriteString("\n" + titleStyle.Render("INVENTORY") + "\n")
	if len(v.Inventory) == 0 {
		b.WriteString("(empty)\n")
	}
	for _, item := range v.Inventory {
		b.WriteString("- " + itemLabel(item) + "\n")
	}

	stateWidth := int(float64(m.width) * 0.27)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

func itemLabel(item models.ItemView) string {
	if item.State == "" {
		return item.Name
	}
	return fmt.Sprintf("%s (%s)", item.Name, item.State)
}

func (m model) initSession(module string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.engine.InitSession(context.Background(), m.profile, m.language, module)
		return viewMsg{view: view, err: err}
	}
}

func (m model) playTurn(input string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.engine.PlayTurn(context.Background(), m.profile, m.language, input)
		return viewMsg{view: view, input: input, err: err}
	}
}

func (m model) listDue() tea.Cmd {
	return func() tea.Msg {
		due, err := m.engine.ListDue(context.Background(), m.profile, m.language)
		return dueMsg{due: due, err: err}
	}
}

func (m model) review(card vocab.WordProgress, quality int) tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.ReviewDue(context.Background(), m.profile, m.language, card.WordID, quality)
		return reviewedMsg{card: card, result: res, err: err}
	}
}

// NewProgram returns the full-screen program. Reminders are delivered with
// Program.Send(ReminderMsg{...}).
func NewProgram(eng *engine.Engine, cat *catalog.Catalog, profile string) *tea.Program {
	return tea.NewProgram(NewModel(eng, cat, profile), tea.WithAltScreen())
}
