package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuiquiz/internal/quiz"
)

const eventBuffer = 64

// eventMsg delivers a game event to Update.
type eventMsg struct {
	bridge *eventBridge
	event  quiz.Event
}

// eventBridge forwards events from game timer goroutines into the Bubble Tea loop.
// Each game gets its own bridge so events of an abandoned game are dropped.
type eventBridge struct {
	events chan quiz.Event
	done   chan struct{}
	once   sync.Once
}

func newEventBridge() *eventBridge {
	return &eventBridge{
		events: make(chan quiz.Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

func (b *eventBridge) listen(ev quiz.Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

func (b *eventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-b.events:
			return eventMsg{bridge: b, event: ev}
		case <-b.done:
			return nil
		}
	}
}

func (b *eventBridge) close() {
	b.once.Do(func() {
		close(b.done)
	})
}
