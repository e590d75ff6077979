// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/quiz"
)

type phase int

const (
	phaseSetup phase = iota
	phaseLoading
	phaseQuestion
	phaseResults
	phaseError
)

type questionsMsg struct {
	session *quiz.Session
	err     error
}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	provider quiz.Provider
	board    quiz.Board
	gameOpts []quiz.Option
	cfg      model.QuizConfig
	quick    bool

	phase  phase
	width  int
	height int

	form    setupForm
	spinner spinner.Model

	session *quiz.Session
	game    *quiz.Game
	bridge  *eventBridge
	view    quiz.RoundView
	cursor  int

	summary  model.Summary
	boardErr error
	results  table.Model

	loadErr error
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warningStyle = errorStyle.Bold(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#D4AF37")).Bold(true).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a quiz UI model. cfg prefills the setup form; with quick the
// form is skipped and questions are loaded right away. opts are passed to every game.
func NewModel(provider quiz.Provider, board quiz.Board, cfg model.QuizConfig, quick bool, opts ...quiz.Option) *Model {
	m := &Model{
		provider: provider,
		board:    board,
		gameOpts: opts,
		cfg:      cfg,
		quick:    quick,
		form:     newSetupForm(cfg),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(cursorStyle)),
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.quick {
		return m.startLoading(m.cfg)
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.stopGame()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.phase != phaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case questionsMsg:
		return m, m.handleQuestions(msg)
	case eventMsg:
		return m, m.handleEvent(msg)
	default:
		if m.phase == phaseSetup {
			var cmd tea.Cmd
			m.form.inputs[m.form.index], cmd = m.form.inputs[m.form.index].Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.phase {
	case phaseSetup:
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		submit, cmd := m.form.update(msg)
		if !submit {
			return m, cmd
		}
		cfg, err := m.form.config()
		if err != nil {
			m.form.setError(err)
			return m, nil
		}
		return m, m.startLoading(cfg)
	case phaseLoading:
		if msg.Type == tea.KeyEsc {
			m.session = nil
			return m, m.backToSetup()
		}
	case phaseQuestion:
		return m, m.handleAnswerKey(msg)
	case phaseResults:
		switch msg.String() {
		case "r", "enter":
			return m, m.backToSetup()
		case "q", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	case phaseError:
		switch msg.String() {
		case "r", "enter":
			return m, m.startLoading(m.cfg)
		case "esc":
			return m, m.backToSetup()
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) handleAnswerKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.stopGame()
		return m.backToSetup()
	case "q":
		m.stopGame()
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return nil
	case "down", "j":
		if m.cursor < len(m.view.Answers)-1 {
			m.cursor++
		}
		return nil
	case "enter", " ":
		m.submit(m.cursor)
		return nil
	}
	if len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		m.submit(int(msg.Runes[0] - '1'))
	}
	return nil
}

// submit answers the round on screen. Keys pressed while it shows a resolved round
// are dropped even when the game has already moved on.
func (m *Model) submit(i int) {
	if m.game == nil || m.view.State != quiz.RoundActive {
		return
	}
	if !m.game.SubmitRound(m.view.Index, i) {
		return
	}
	m.cursor = i
	if r := m.game.Current(); r != nil && r.View().Index == m.view.Index {
		m.view = r.View()
	}
}

func (m *Model) startLoading(cfg model.QuizConfig) tea.Cmd {
	s, err := quiz.NewSession(cfg, m.provider, m.board)
	if err != nil {
		m.form.setValues(cfg)
		m.form.setError(err)
		m.phase = phaseSetup
		return nil
	}
	m.cfg = cfg
	m.session = s
	m.loadErr = nil
	m.phase = phaseLoading
	return tea.Batch(m.spinner.Tick, fetchQuestions(s))
}

func fetchQuestions(s *quiz.Session) tea.Cmd {
	return func() tea.Msg {
		_, err := s.FetchQuestions(context.Background())
		return questionsMsg{session: s, err: err}
	}
}

func (m *Model) handleQuestions(msg questionsMsg) tea.Cmd {
	if msg.session != m.session || m.phase != phaseLoading {
		return nil
	}
	if msg.err != nil {
		m.fail(msg.err)
		return nil
	}
	return m.startGame()
}

func (m *Model) startGame() tea.Cmd {
	b := newEventBridge()
	opts := append(append([]quiz.Option{}, m.gameOpts...), quiz.WithListener(b.listen))
	g := quiz.NewGame(m.session, opts...)
	m.game = g
	m.bridge = b
	if err := g.Start(); err != nil {
		m.stopGame()
		m.fail(err)
		return nil
	}
	m.view = g.Current().View()
	m.cursor = 0
	m.phase = phaseQuestion
	return b.wait()
}

func (m *Model) handleEvent(msg eventMsg) tea.Cmd {
	if msg.bridge != m.bridge {
		return nil
	}
	switch ev := msg.event.(type) {
	case quiz.RoundStarted:
		if ev.View.Index != m.view.Index {
			m.cursor = 0
		}
		m.view = ev.View
	case quiz.Tick:
		if ev.Round == m.view.Index && m.view.State == quiz.RoundActive {
			m.view.Remaining = ev.Remaining
		}
	case quiz.LowTime:
		if ev.Round == m.view.Index && m.view.State == quiz.RoundActive {
			m.view.Warning = true
		}
	case quiz.Resolved:
		m.view = ev.View
	case quiz.Finished:
		m.showResults(ev.Summary, ev.Err)
		m.bridge.close()
		m.bridge = nil
		m.game = nil
		return nil
	}
	return m.bridge.wait()
}

func (m *Model) showResults(summary model.Summary, err error) {
	m.summary = summary
	m.boardErr = err
	m.results = buildResultsTable(summary.Leaderboard, summary.Rank)
	m.phase = phaseResults
}

func (m *Model) fail(err error) {
	log.Printf("quiz: %v", err)
	m.loadErr = err
	m.phase = phaseError
}

func (m *Model) backToSetup() tea.Cmd {
	m.phase = phaseSetup
	m.form.setValues(m.cfg)
	m.form.err = ""
	return m.form.setIndex(fieldName)
}

func (m *Model) stopGame() {
	if m.game != nil {
		m.game.Stop()
		m.game = nil
	}
	if m.bridge != nil {
		m.bridge.close()
		m.bridge = nil
	}
}
