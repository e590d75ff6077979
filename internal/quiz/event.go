package quiz

import "github.com/verte-zerg/tuiquiz/internal/model"

// Event is emitted by a Game to its listener. Events carry data only.
type Event interface {
	event()
}

// RoundStarted is emitted when a round's countdown begins.
type RoundStarted struct {
	View RoundView
}

// Tick is emitted once per countdown second.
type Tick struct {
	Round     int
	Remaining int
}

// LowTime is emitted once per round, on the first tick at or below WarningSeconds.
type LowTime struct {
	Round     int
	Remaining int
}

// Resolved is emitted when a round is answered or times out.
type Resolved struct {
	View RoundView
}

// Finished is emitted after the last round. Err is set when the leaderboard could
// not be read or saved; Summary is still valid.
type Finished struct {
	Summary model.Summary
	Err     error
}

func (RoundStarted) event() {}
func (Tick) event()         {}
func (LowTime) event()      {}
func (Resolved) event()     {}
func (Finished) event()     {}

// RoundView is the display payload of a round.
type RoundView struct {
	Index      int
	Number     int
	Total      int
	Served     int
	Question   string
	Category   string
	Difficulty string
	Answers    []string
	Remaining  int
	Warning    bool
	Progress   int
	Score      int
	State      RoundState
	Outcome    Outcome
	Choice     string
	// Correct is empty until the round is resolved.
	Correct string
}
