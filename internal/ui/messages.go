package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/ocuprofile/internal/workflow"
)

// analysisDoneMsg carries the outcome of a submission
type analysisDoneMsg struct {
	state workflow.State
}

// awaitCommand runs the submission off the update loop
func awaitCommand(sub *workflow.Submission) tea.Cmd {
	return func() tea.Msg {
		return analysisDoneMsg{state: sub.Await()}
	}
}

// transitionQueue buffers workflow transitions reported by the listener,
// which may run on the command goroutine, until the update loop applies them
type transitionQueue struct {
	mu      sync.Mutex
	pending []workflow.State
}

func (q *transitionQueue) push(_, to workflow.State) {
	q.mu.Lock()
	q.pending = append(q.pending, to)
	q.mu.Unlock()
}

func (q *transitionQueue) drain() []workflow.State {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}
