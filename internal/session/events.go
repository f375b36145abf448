package session

import (
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// EventType classifies session notifications sent to front ends.
type EventType string

const (
	// EventSessionStarted fires when a start signal arms a session.
	EventSessionStarted EventType = "session_started"
	// EventProfessorRecognized fires when the first confident match opens
	// the session.
	EventProfessorRecognized EventType = "professor_recognized"
	// EventCheckinRecorded fires when a new attendance event is durably recorded.
	EventCheckinRecorded EventType = "checkin_recorded"
	// EventAlreadyPresent fires when a recognized identity was already
	// marked present for the day.
	EventAlreadyPresent EventType = "already_present"
	// EventUnknownFace fires when an embedding does not resolve to any
	// enrolled identity. Unknown faces never produce ledger entries.
	EventUnknownFace EventType = "unknown_face"
	// EventSessionClosed fires when a stop signal closes the session.
	EventSessionClosed EventType = "session_closed"
)

// Event is one session notification. Summary is populated only on
// EventSessionClosed.
type Event struct {
	Type       EventType             `json:"type"`
	ClassID    string                `json:"class_id"`
	IdentityID string                `json:"identity_id,omitempty"`
	Distance   float64               `json:"distance,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
	Summary    []database.SummaryRow `json:"summary,omitempty"`
}

// Notifier receives session events. Implementations must not block; the
// engine calls Notify synchronously on its processing path.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Event)

// Notify calls the wrapped function.
func (f NotifierFunc) Notify(event Event) { f(event) }
