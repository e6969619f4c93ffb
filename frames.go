package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"kanban/internal/drag"
)

// frameInterval approximates one display refresh.
const frameInterval = 16 * time.Millisecond

type frameMsg struct{ id drag.FrameID }

// frameScheduler adapts bubbletea's tick loop to drag.Scheduler. Callbacks
// requested during an Update are turned into tea.Tick commands by flush; a
// tick whose callback was cancelled in the meantime is a no-op.
type frameScheduler struct {
	next    drag.FrameID
	pending map[drag.FrameID]func()
	queued  []drag.FrameID
}

func newFrameScheduler() *frameScheduler {
	return &frameScheduler{pending: make(map[drag.FrameID]func())}
}

func (f *frameScheduler) RequestFrame(fn func()) drag.FrameID {
	f.next++
	id := f.next
	f.pending[id] = fn
	f.queued = append(f.queued, id)
	return id
}

func (f *frameScheduler) CancelFrame(id drag.FrameID) {
	delete(f.pending, id)
}

// run fires the callback for id if it is still pending.
func (f *frameScheduler) run(id drag.FrameID) bool {
	fn, ok := f.pending[id]
	if !ok {
		return false
	}
	delete(f.pending, id)
	fn()
	return true
}

// flush returns the tick commands for frames requested since the last flush.
func (f *frameScheduler) flush() tea.Cmd {
	if len(f.queued) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(f.queued))
	for _, id := range f.queued {
		if _, ok := f.pending[id]; !ok {
			continue
		}
		id := id
		cmds = append(cmds, tea.Tick(frameInterval, func(time.Time) tea.Msg {
			return frameMsg{id: id}
		}))
	}
	f.queued = f.queued[:0]
	return tea.Batch(cmds...)
}

// Pending reports how many callbacks are waiting.
func (f *frameScheduler) Pending() int { return len(f.pending) }
