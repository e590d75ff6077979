package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuiquiz/internal/leaderboard"
	"github.com/verte-zerg/tuiquiz/internal/model"
	"github.com/verte-zerg/tuiquiz/internal/trivia"
)

// fakeClock fires callbacks synchronously from Advance, in due order.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type stubProvider struct {
	questions []model.RawQuestion
	err       error
	calls     int
	last      trivia.Request
}

func (p *stubProvider) FetchQuestions(_ context.Context, req trivia.Request) ([]model.RawQuestion, error) {
	p.calls++
	p.last = req
	return p.questions, p.err
}

type memKV struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	putErr error
	puts   int
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) finished() (Finished, bool) {
	for _, ev := range r.all() {
		if f, ok := ev.(Finished); ok {
			return f, true
		}
	}
	return Finished{}, false
}

func makeQuestions(n int) []model.RawQuestion {
	qs := make([]model.RawQuestion, n)
	for i := range qs {
		qs[i] = model.RawQuestion{
			Type:             "multiple",
			Difficulty:       "easy",
			Category:         "Science &amp; Nature",
			Question:         fmt.Sprintf("Question &quot;%d&quot;?", i),
			CorrectAnswer:    fmt.Sprintf("Right &amp; %d", i),
			IncorrectAnswers: []string{"Wrong &#039;a&#039;", "Wrong b", "Wrong c"},
		}
	}
	return qs
}

type fixture struct {
	session *Session
	game    *Game
	clock   *fakeClock
	kv      *memKV
	events  *recorder
}

func newFixture(t *testing.T, cfg model.QuizConfig, questions []model.RawQuestion) *fixture {
	t.Helper()
	kv := newMemKV()
	s, err := NewSession(cfg, &stubProvider{questions: questions}, leaderboard.NewBoard(kv))
	require.NoError(t, err)
	_, err = s.FetchQuestions(context.Background())
	require.NoError(t, err)

	f := &fixture{session: s, clock: &fakeClock{}, kv: kv, events: &recorder{}}
	f.game = NewGame(s,
		WithClock(f.clock),
		WithRand(rand.New(rand.NewSource(1))),
		WithListener(f.events.listen),
	)
	return f
}

func (f *fixture) correctAnswer(t *testing.T) string {
	t.Helper()
	r := f.game.Current()
	require.NotNil(t, r)
	return r.correct
}

func (f *fixture) wrongAnswer(t *testing.T) string {
	t.Helper()
	r := f.game.Current()
	require.NotNil(t, r)
	for _, a := range r.answers {
		if a != r.correct {
			return a
		}
	}
	t.Fatalf("round has no wrong answer")
	return ""
}
