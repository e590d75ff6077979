package tui

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/quiz"
	"github.com/verte-zerg/tuiquiz/internal/trivia"
)

type stubProvider struct {
	questions []model.RawQuestion
	err       error
	calls     int
}

func (p *stubProvider) FetchQuestions(_ context.Context, _ trivia.Request) ([]model.RawQuestion, error) {
	p.calls++
	return p.questions, p.err
}

type stubBoard struct {
	entries []model.HighScoreEntry
}

func (b *stubBoard) Load(_ context.Context) ([]model.HighScoreEntry, error) {
	return b.entries, nil
}

func (b *stubBoard) Update(_ context.Context, fn func([]model.HighScoreEntry) ([]model.HighScoreEntry, bool, error)) error {
	next, write, err := fn(b.entries)
	if err == nil && write {
		b.entries = next
	}
	return err
}

// idleClock never fires, so rounds only resolve through answers.
type idleClock struct{}

type idleTimer struct{}

func (idleClock) AfterFunc(time.Duration, func()) quiz.Timer { return idleTimer{} }

func (idleTimer) Stop() bool { return true }

// manualClock holds callbacks until fire runs the ones scheduled with a given delay.
type manualClock struct {
	timers []*manualTimer
}

type manualTimer struct {
	d    time.Duration
	f    func()
	done bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) quiz.Timer {
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	active := !t.done
	t.done = true
	return active
}

func (c *manualClock) fire(d time.Duration) {
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.done && t.d == d {
			t.done = true
			due = append(due, t)
		}
	}
	for _, t := range due {
		t.f()
	}
}

func testQuestions(n int) []model.RawQuestion {
	qs := make([]model.RawQuestion, n)
	for i := range qs {
		qs[i] = model.RawQuestion{
			Type:             "multiple",
			Difficulty:       "easy",
			Category:         "General Knowledge",
			Question:         "Is &quot;this&quot; a question?",
			CorrectAnswer:    "Yes",
			IncorrectAnswers: []string{"No", "Maybe", "Never"},
		}
	}
	return qs
}

func newTestModel(provider *stubProvider, quick bool) *Model {
	cfg := model.QuizConfig{Amount: 2, PlayerName: "Ann"}
	return NewModel(provider, &stubBoard{}, cfg, quick,
		quiz.WithClock(idleClock{}),
		quiz.WithRand(rand.New(rand.NewSource(1))),
	)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// load runs the pending fetch of the model's session and delivers the result.
func load(t *testing.T, m *Model) tea.Cmd {
	t.Helper()
	if m.phase != phaseLoading {
		t.Fatalf("expected loading phase, got %d", m.phase)
	}
	_, cmd := m.Update(fetchQuestions(m.session)())
	return cmd
}

func deliver(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a pending event command")
	}
	msg, ok := cmd().(eventMsg)
	if !ok {
		t.Fatalf("expected an event message")
	}
	_, next := m.Update(msg)
	return next
}

func correctIndex(t *testing.T, m *Model) int {
	t.Helper()
	for i, a := range m.view.Answers {
		if a == "Yes" {
			return i
		}
	}
	t.Fatalf("correct answer not shown: %v", m.view.Answers)
	return -1
}

func TestSetupFormValidation(t *testing.T) {
	f := newSetupForm(model.QuizConfig{})
	cases := []struct {
		amount string
		want   string
	}{
		{"", "Please enter the number of questions."},
		{"0", "Minimum 1 question required."},
		{"51", "Maximum 50 questions allowed."},
	}
	for _, tc := range cases {
		f.inputs[fieldAmount].SetValue(tc.amount)
		_, err := f.config()
		if err == nil {
			t.Fatalf("amount %q: expected error", tc.amount)
		}
		f.setError(err)
		if f.err != tc.want {
			t.Fatalf("amount %q: expected %q, got %q", tc.amount, tc.want, f.err)
		}
	}

	f.inputs[fieldAmount].SetValue("10")
	f.inputs[fieldCategory].SetValue("science")
	if _, err := f.config(); err == nil {
		t.Fatalf("expected category error")
	}

	f.inputs[fieldCategory].SetValue("17")
	f.inputs[fieldDifficulty].SetValue("Hard")
	f.inputs[fieldName].SetValue("  ")
	cfg, err := f.config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	want := model.QuizConfig{Category: 17, Difficulty: model.DifficultyHard, Amount: 10, PlayerName: "Player"}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}
}

func TestSetupFormPrefill(t *testing.T) {
	f := newSetupForm(model.QuizConfig{Category: 9, Difficulty: model.DifficultyEasy, Amount: 5, PlayerName: "Ann"})
	got := []string{
		f.inputs[fieldName].Value(),
		f.inputs[fieldCategory].Value(),
		f.inputs[fieldDifficulty].Value(),
		f.inputs[fieldAmount].Value(),
	}
	if strings.Join(got, ",") != "Ann,9,easy,5" {
		t.Fatalf("unexpected prefill: %v", got)
	}
}

func TestSetupSubmitStartsLoading(t *testing.T) {
	provider := &stubProvider{questions: testQuestions(2)}
	m := newTestModel(provider, false)
	for i := 0; i < fieldAmount; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.phase != phaseSetup {
			t.Fatalf("enter on field %d should move to the next field", i)
		}
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.phase != phaseLoading {
		t.Fatalf("expected loading phase, got %d", m.phase)
	}
	if !strings.Contains(m.View(), "Loading questions") {
		t.Fatalf("expected loading view: %s", m.View())
	}
}

func TestQuizFlow(t *testing.T) {
	provider := &stubProvider{questions: testQuestions(2)}
	m := newTestModel(provider, true)
	m.Init()

	cmd := load(t, m)
	if m.phase != phaseQuestion {
		t.Fatalf("expected question phase, got %d", m.phase)
	}
	out := m.View()
	for _, want := range []string{"Question 1/2", `Is "this" a question?`, "Progress 50%", "Score 0", "Time 30s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("question view missing %q:\n%s", want, out)
		}
	}

	cmd = deliver(t, m, cmd)
	idx := correctIndex(t, m)
	m.Update(keyRunes(string(rune('1' + idx))))
	if m.view.Outcome != quiz.OutcomeCorrect {
		t.Fatalf("expected correct outcome, got %s", m.view.Outcome)
	}
	if !strings.Contains(m.View(), "Correct!") {
		t.Fatalf("expected correct status")
	}
	deliver(t, m, cmd)

	// A second answer to the same round is ignored.
	m.Update(keyRunes("1"))
	if m.view.Score != 1 {
		t.Fatalf("expected score 1, got %d", m.view.Score)
	}

	bridge := m.bridge
	_, next := m.Update(eventMsg{bridge: bridge, event: quiz.Finished{Summary: model.Summary{
		Score:      1,
		Total:      2,
		Percentage: 50,
		Qualified:  true,
		Rank:       1,
		Leaderboard: []model.HighScoreEntry{
			{PlayerName: "Ann", Score: 1, Total: 2, Percentage: 50},
		},
	}}})
	if next != nil {
		t.Fatalf("no event should be awaited after the game finished")
	}
	if m.phase != phaseResults {
		t.Fatalf("expected results phase, got %d", m.phase)
	}
	out = m.View()
	for _, want := range []string{"Quiz Complete!", "1/2", "50% Accuracy", "New High Score!", "Rank #1", "Ann"} {
		if !strings.Contains(out, want) {
			t.Fatalf("results view missing %q:\n%s", want, out)
		}
	}

	m.Update(keyRunes("r"))
	if m.phase != phaseSetup {
		t.Fatalf("expected setup phase after restart, got %d", m.phase)
	}
	if m.form.inputs[fieldName].Value() != "Ann" {
		t.Fatalf("expected form prefilled with last config")
	}
}

func TestTickUpdatesCountdown(t *testing.T) {
	m := newTestModel(&stubProvider{questions: testQuestions(2)}, true)
	m.Init()
	load(t, m)

	m.Update(eventMsg{bridge: m.bridge, event: quiz.Tick{Round: 0, Remaining: 12}})
	if m.view.Remaining != 12 {
		t.Fatalf("expected 12s remaining, got %d", m.view.Remaining)
	}
	m.Update(eventMsg{bridge: m.bridge, event: quiz.LowTime{Round: 0, Remaining: 10}})
	if !m.view.Warning {
		t.Fatalf("expected warning state")
	}
	m.Update(eventMsg{bridge: m.bridge, event: quiz.Tick{Round: 1, Remaining: 3}})
	if m.view.Remaining != 12 {
		t.Fatalf("tick of another round must be ignored")
	}
	m.Update(eventMsg{bridge: newEventBridge(), event: quiz.Tick{Round: 0, Remaining: 1}})
	if m.view.Remaining != 12 {
		t.Fatalf("tick of an abandoned game must be ignored")
	}
}

func TestLoadFailureAndRetry(t *testing.T) {
	provider := &stubProvider{err: &trivia.FetchError{Err: errors.New("connection refused")}}
	m := newTestModel(provider, true)
	m.Init()
	load(t, m)

	if m.phase != phaseError {
		t.Fatalf("expected error phase, got %d", m.phase)
	}
	if !errors.Is(m.loadErr, quiz.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", m.loadErr)
	}
	if !strings.Contains(m.View(), "Failed to load questions. Please try again.") {
		t.Fatalf("expected failure message:\n%s", m.View())
	}

	provider.err = nil
	provider.questions = testQuestions(2)
	m.Update(keyRunes("r"))
	load(t, m)
	if m.phase != phaseQuestion {
		t.Fatalf("expected question phase after retry, got %d", m.phase)
	}
	if provider.calls != 2 {
		t.Fatalf("expected one request per attempt, got %d", provider.calls)
	}
}

func TestAbandonStopsGame(t *testing.T) {
	m := newTestModel(&stubProvider{questions: testQuestions(2)}, true)
	m.Init()
	load(t, m)
	bridge := m.bridge

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.phase != phaseSetup {
		t.Fatalf("expected setup phase, got %d", m.phase)
	}
	if m.game != nil || m.bridge != nil {
		t.Fatalf("expected the game to be released")
	}
	if msg := bridge.wait()(); msg != nil {
		if _, ok := msg.(eventMsg); !ok {
			t.Fatalf("unexpected message %T", msg)
		}
	}
}

func TestStaleQuestionsIgnored(t *testing.T) {
	m := newTestModel(&stubProvider{questions: testQuestions(2)}, true)
	m.Init()
	stale := m.session
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	m.Update(questionsMsg{session: stale})
	if m.phase != phaseSetup {
		t.Fatalf("a cancelled load must not start a game")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{view: quiz.RoundView{Progress: 40, Score: 2, Remaining: 17}}
	out := m.renderFooter()
	for _, want := range []string{"Progress 40%", "Score 2", "Time 17s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestResultsTableSelectsRank(t *testing.T) {
	entries := []model.HighScoreEntry{
		{PlayerName: "A", Percentage: 90},
		{PlayerName: "B", Percentage: 80},
		{PlayerName: "C", Percentage: 70},
	}
	tbl := buildResultsTable(entries, 2)
	if tbl.Cursor() != 1 {
		t.Fatalf("expected cursor on rank 2, got %d", tbl.Cursor())
	}
	if len(tbl.Rows()) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tbl.Rows()))
	}
}

func TestKeyDuringRevealDoesNotAnswerNextRound(t *testing.T) {
	clock := &manualClock{}
	cfg := model.QuizConfig{Amount: 2, PlayerName: "Ann"}
	m := NewModel(&stubProvider{questions: testQuestions(2)}, &stubBoard{}, cfg, true,
		quiz.WithClock(clock),
		quiz.WithRand(rand.New(rand.NewSource(1))),
	)
	m.Init()
	cmd := load(t, m)
	cmd = deliver(t, m, cmd)

	m.Update(keyRunes(string(rune('1' + correctIndex(t, m)))))
	cmd = deliver(t, m, cmd)
	if m.view.State != quiz.RoundResolved || m.view.Index != 0 {
		t.Fatalf("expected resolved round 0 on screen, got index %d state %s", m.view.Index, m.view.State)
	}

	// The reveal delay elapses but the next round has not been drawn yet.
	clock.fire(quiz.RevealDelay)
	next := m.game.Current()
	if next.View().Index != 1 {
		t.Fatalf("expected the game to move to round 1")
	}
	m.Update(keyRunes("2"))
	if next.Answered() {
		t.Fatalf("a key pressed on the resolved round answered the unseen round")
	}
	if m.session.Score() != 1 {
		t.Fatalf("expected score 1, got %d", m.session.Score())
	}

	deliver(t, m, cmd)
	if m.view.Index != 1 || m.view.State != quiz.RoundActive {
		t.Fatalf("expected active round 1 on screen, got index %d state %s", m.view.Index, m.view.State)
	}
	m.Update(keyRunes("2"))
	if !next.Answered() {
		t.Fatalf("expected the displayed round to accept the answer")
	}
}
