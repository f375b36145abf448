// Package session implements the class-meeting lifecycle: a session is
// opened by an explicit start signal, armed until the professor is
// recognized, collects student check-ins while running, and closes on the
// stop signal with a recomputed attendance summary.
package session

import (
	"errors"
	"time"
)

// State is the lifecycle state of a class session. Transitions are
// monotonic: Idle -> AwaitingProfessor -> InSession -> Closed.
type State string

const (
	// StateIdle means no session activity; only a start signal is accepted.
	StateIdle State = "idle"
	// StateAwaitingProfessor means the session is armed and waiting for the
	// first confident match, which becomes the session professor.
	StateAwaitingProfessor State = "awaiting_professor"
	// StateInSession means the professor is recorded and student check-ins
	// are being collected.
	StateInSession State = "in_session"
	// StateClosed is terminal; any further signal or match is rejected.
	StateClosed State = "closed"
)

// ErrInvalidSessionState is returned when a signal or match is delivered to
// a session state that cannot accept it: input after Closed, a stop signal
// in Idle, or a duplicate start. This is a usage error, never silently
// absorbed.
var ErrInvalidSessionState = errors.New("invalid session state")

// Snapshot is a read-only view of one session's state.
type Snapshot struct {
	ClassID     string    `json:"class_id"`
	State       State     `json:"state"`
	ProfessorID string    `json:"professor_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitzero"`
	Checkins    int       `json:"checkins"`
}
