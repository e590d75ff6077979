package quiz

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

const finalizeTimeout = 10 * time.Second

// Listener receives game events. With the real clock it is called from timer
// goroutines, so it must not block.
type Listener func(Event)

// Option configures a Game.
type Option func(*Game)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(g *Game) {
		g.clock = c
	}
}

// WithRand sets the random source used to shuffle answers.
func WithRand(rnd *rand.Rand) Option {
	return func(g *Game) {
		g.rnd = rnd
	}
}

// WithListener sets the event listener.
func WithListener(l Listener) Option {
	return func(g *Game) {
		g.listener = l
	}
}

// Game runs the rounds of a session, one at a time.
type Game struct {
	session  *Session
	clock    Clock
	rnd      *rand.Rand
	listener Listener

	mu      sync.Mutex
	current *Round
	started bool
	stopped bool
	done    bool
}

// NewGame returns a Game for a session whose questions have been fetched.
func NewGame(s *Session, opts ...Option) *Game {
	g := &Game{
		session: s,
		clock:   realClock{},
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the game's session.
func (g *Game) Session() *Session {
	return g.session
}

// Start builds and starts the first round.
func (g *Game) Start() error {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return fmt.Errorf("game already started")
	}
	g.started = true
	g.mu.Unlock()

	r, err := BuildRound(g)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.current = r
	g.mu.Unlock()
	r.Start()
	return nil
}

// Current returns the round on screen, or nil before Start.
func (g *Game) Current() *Round {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Submit answers the current round. It reports whether the answer was accepted.
func (g *Game) Submit(choice string) bool {
	r := g.Current()
	if r == nil {
		return false
	}
	return r.Submit(choice)
}

// SubmitIndex answers the current round with its i-th answer.
func (g *Game) SubmitIndex(i int) bool {
	r := g.Current()
	if r == nil {
		return false
	}
	return r.SubmitIndex(i)
}

// SubmitRound answers round index with its i-th answer. It returns false when
// index is no longer the current round, so input aimed at a round that has been
// replaced is dropped.
func (g *Game) SubmitRound(index, i int) bool {
	r := g.Current()
	if r == nil || r.index != index {
		return false
	}
	return r.SubmitIndex(i)
}

// Done reports whether the last round has been played.
func (g *Game) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Stop cancels the current round's timers. No events are emitted afterwards.
func (g *Game) Stop() {
	g.mu.Lock()
	g.stopped = true
	r := g.current
	g.mu.Unlock()
	if r != nil {
		r.stop()
	}
}

func (g *Game) advance(from *Round) {
	g.mu.Lock()
	if g.stopped || g.current != from {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	if !g.session.Advance() {
		g.finish()
		return
	}
	r, err := BuildRound(g)
	if err != nil {
		log.Printf("session %s: build round: %v", g.session.ID(), err)
		g.finish()
		return
	}
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.current = r
	g.mu.Unlock()
	r.Start()
}

func (g *Game) finish() {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return
	}
	g.done = true
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	summary, err := g.session.Finalize(ctx)
	if err != nil {
		log.Printf("session %s: finalize: %v", g.session.ID(), err)
	}
	g.emit(Finished{Summary: summary, Err: err})
}

func (g *Game) emit(events ...Event) {
	g.mu.Lock()
	stopped := g.stopped
	g.mu.Unlock()
	if stopped || g.listener == nil {
		return
	}
	for _, ev := range events {
		g.listener(ev)
	}
}
