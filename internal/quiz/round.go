package quiz

import (
	"sync"
	"time"
)

// Round timing.
const (
	RoundSeconds   = 30
	WarningSeconds = 10
	RevealDelay    = 2 * time.Second
	tickInterval   = time.Second
)

// RoundState is the lifecycle position of a round. Rounds only move forward.
type RoundState int

const (
	RoundActive RoundState = iota
	RoundResolved
	RoundTransitioning
)

func (s RoundState) String() string {
	switch s {
	case RoundActive:
		return "active"
	case RoundResolved:
		return "resolved"
	case RoundTransitioning:
		return "transitioning"
	default:
		return "unknown"
	}
}

// Outcome is how a round was resolved.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCorrect
	OutcomeWrong
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Round is the lifecycle of one displayed question. It accepts at most one answer,
// and its timers only ever act on the round that armed them.
type Round struct {
	game       *Game
	index      int
	question   string
	correct    string
	category   string
	difficulty string
	answers    []string

	mu        sync.Mutex
	started   bool
	state     RoundState
	answered  bool
	remaining int
	warning   bool
	outcome   Outcome
	choice    string
	ticker    Timer
	delay     Timer
}

// BuildRound builds a round for the session's current question.
func BuildRound(g *Game) (*Round, error) {
	q, ok := g.session.CurrentQuestion()
	if !ok {
		return nil, &RoundBuildError{Index: g.session.Index(), Total: len(g.session.Questions())}
	}
	incorrect := make([]string, len(q.IncorrectAnswers))
	for i, a := range q.IncorrectAnswers {
		incorrect[i] = decodeHTML(a)
	}
	correct := decodeHTML(q.CorrectAnswer)
	difficulty := q.Difficulty
	if difficulty == "" {
		difficulty = g.session.cfg.Difficulty.Label()
	}
	return &Round{
		game:       g,
		index:      g.session.Index(),
		question:   decodeHTML(q.Question),
		correct:    correct,
		category:   decodeHTML(q.Category),
		difficulty: difficulty,
		answers:    shuffleAnswers(g.rnd, correct, incorrect),
		state:      RoundActive,
		remaining:  RoundSeconds,
	}, nil
}

// Start emits RoundStarted and begins the countdown. Starting twice is a no-op.
func (r *Round) Start() {
	r.mu.Lock()
	if r.started || r.state != RoundActive {
		r.mu.Unlock()
		return
	}
	r.started = true
	view := r.viewLocked()
	r.mu.Unlock()

	r.game.emit(RoundStarted{View: view})

	r.mu.Lock()
	if r.state == RoundActive {
		r.ticker = r.game.clock.AfterFunc(tickInterval, r.tick)
	}
	r.mu.Unlock()
}

// Submit answers the round. It returns false, changing nothing, when the round
// has already been answered or timed out.
func (r *Round) Submit(choice string) bool {
	r.mu.Lock()
	if r.answered || r.state != RoundActive {
		r.mu.Unlock()
		return false
	}
	outcome := OutcomeWrong
	if choice == r.correct {
		outcome = OutcomeCorrect
		r.game.session.RecordCorrectAnswer()
	}
	ev := r.resolveLocked(outcome, choice)
	r.mu.Unlock()

	r.game.emit(ev)
	return true
}

// SubmitIndex answers with the i-th shuffled answer.
func (r *Round) SubmitIndex(i int) bool {
	if i < 0 || i >= len(r.answers) {
		return false
	}
	return r.Submit(r.answers[i])
}

// View returns the current display payload.
func (r *Round) View() RoundView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// Answered reports whether the round has been resolved.
func (r *Round) Answered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answered
}

// State returns the lifecycle position of the round.
func (r *Round) State() RoundState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Round) tick() {
	r.mu.Lock()
	if r.state != RoundActive {
		r.mu.Unlock()
		return
	}
	r.remaining--
	events := []Event{Tick{Round: r.index, Remaining: r.remaining}}
	if r.remaining <= WarningSeconds && !r.warning {
		r.warning = true
		events = append(events, LowTime{Round: r.index, Remaining: r.remaining})
	}
	if r.remaining <= 0 {
		r.remaining = 0
		events = append(events, r.resolveLocked(OutcomeTimedOut, ""))
	} else {
		r.ticker = r.game.clock.AfterFunc(tickInterval, r.tick)
	}
	r.mu.Unlock()

	r.game.emit(events...)
}

// resolveLocked marks the round answered, stops the countdown and schedules the
// transition. r.mu must be held.
func (r *Round) resolveLocked(outcome Outcome, choice string) Event {
	r.answered = true
	r.state = RoundResolved
	r.outcome = outcome
	r.choice = choice
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	r.delay = r.game.clock.AfterFunc(RevealDelay, r.resolveRound)
	return Resolved{View: r.viewLocked()}
}

// resolveRound runs after the reveal delay: it advances the session and either
// starts the next round or finishes the game.
func (r *Round) resolveRound() {
	r.mu.Lock()
	if r.state != RoundResolved {
		r.mu.Unlock()
		return
	}
	r.state = RoundTransitioning
	r.delay = nil
	r.mu.Unlock()

	r.game.advance(r)
}

// stop cancels both timers and retires the round.
func (r *Round) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	if r.delay != nil {
		r.delay.Stop()
		r.delay = nil
	}
	r.state = RoundTransitioning
}

func (r *Round) viewLocked() RoundView {
	s := r.game.session
	answers := make([]string, len(r.answers))
	copy(answers, r.answers)
	v := RoundView{
		Index:      r.index,
		Number:     r.index + 1,
		Total:      s.cfg.Amount,
		Served:     len(s.Questions()),
		Question:   r.question,
		Category:   r.category,
		Difficulty: r.difficulty,
		Answers:    answers,
		Remaining:  r.remaining,
		Warning:    r.warning,
		Progress:   percent(r.index+1, s.cfg.Amount),
		Score:      s.Score(),
		State:      r.state,
		Outcome:    r.outcome,
		Choice:     r.choice,
	}
	if r.answered {
		v.Correct = r.correct
	}
	return v
}
