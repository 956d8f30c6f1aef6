package engine

import "fmt"

// State is the phase of a pipeline run.
type State int

const (
	StateConnecting State = iota
	StateRunning
	StateCommitting
	StateFailing
	StateRollingBack
	StateClosed
)

var stateNames = [...]string{"CONNECTING", "RUNNING", "COMMITTING", "FAILING", "ROLLING_BACK", "CLOSED"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the legal successors of every state. A commit failure moves
// Committing to Failing; a connection failure moves Connecting to Failing.
var transitions = map[State][]State{
	StateConnecting:  {StateRunning, StateFailing},
	StateRunning:     {StateCommitting, StateFailing},
	StateCommitting:  {StateClosed, StateFailing},
	StateFailing:     {StateRollingBack, StateClosed},
	StateRollingBack: {StateClosed},
}

// CanTransition reports whether a run may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateClosed
}
