package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// DefaultRepeatCooldown is the minimum time between ledger hits for the
// same identity within one session. Repeated sightings inside the window
// are answered from memory as already-present.
const DefaultRepeatCooldown = 10 * time.Minute

// SubmitResult is the outcome of processing one submitted embedding.
// Outcome is empty when no ledger decision was made (unknown face).
type SubmitResult struct {
	Match   matcher.MatchResult
	Outcome ledger.Outcome
	Role    database.Role
	State   State
}

// Engine drives one class session. All state is scoped to the class; a
// mutex serializes processing so match events are handled strictly in
// arrival order.
type Engine struct {
	classID  string
	store    database.Store
	match    *matcher.Matcher
	ledger   *ledger.Ledger
	names    map[string]string // identityID -> display name, snapshot at start
	roster   map[string]database.Role
	cooldown time.Duration
	notifier Notifier

	mu          sync.Mutex
	state       State
	professorID string
	startedAt   time.Time
	endedAt     time.Time
	checkins    int
	lastSeen    map[string]time.Time
}

// ClassID returns the class this engine belongs to.
func (e *Engine) ClassID() string {
	return e.classID
}

// start arms the session: Idle -> AwaitingProfessor.
func (e *Engine) start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		return e.rejectLocked("start")
	}
	e.state = StateAwaitingProfessor
	e.startedAt = time.Now()

	e.notifier.Notify(Event{
		Type:      EventSessionStarted,
		ClassID:   e.classID,
		Timestamp: e.startedAt,
	})
	return nil
}

// Submit matches one embedding and applies the session role logic. The
// first confident match while awaiting the professor opens the session and
// records a professor event; later confident matches are student check-in
// attempts. Unknown matches are logged and ignored in every non-terminal
// state, and never produce a ledger entry.
func (e *Engine) Submit(ctx context.Context, embedding []float32, ts time.Time) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateClosed:
		return SubmitResult{State: e.state}, e.rejectLocked("embedding")
	case StateIdle:
		return SubmitResult{State: e.state}, e.rejectLocked("embedding")
	}

	result := SubmitResult{
		Match: e.match.Match(embedding),
		State: e.state,
	}

	if !result.Match.Known() {
		log.Printf("class %s: unknown face ignored (distance %.3f, threshold %.3f)",
			e.classID, result.Match.Distance, e.match.Threshold())
		e.notifier.Notify(Event{
			Type:      EventUnknownFace,
			ClassID:   e.classID,
			Distance:  result.Match.Distance,
			Timestamp: ts,
		})
		return result, nil
	}

	if e.state == StateAwaitingProfessor {
		return e.openSessionLocked(ctx, result, ts)
	}
	return e.studentCheckinLocked(ctx, result, ts)
}

// openSessionLocked handles the first confident match: it becomes the
// session professor and its attendance event is recorded. The transition
// happens only after the event append is acknowledged durable; on
// persistence failure the session stays armed and the submit can be retried.
func (e *Engine) openSessionLocked(ctx context.Context, result SubmitResult, ts time.Time) (SubmitResult, error) {
	identityID := result.Match.IdentityID
	result.Role = database.RoleProfessor

	e.ensureRosterMember(ctx, identityID, database.RoleProfessor)

	outcome, err := e.ledger.RecordCheckin(ctx, identityID, ts, database.RoleProfessor)
	if err != nil {
		return result, err
	}

	e.professorID = identityID
	e.state = StateInSession
	e.lastSeen[identityID] = ts
	result.Outcome = outcome
	result.State = e.state
	if outcome == ledger.OutcomeRecorded {
		e.checkins++
	}

	log.Printf("class %s: session opened by professor %s (distance %.3f)",
		e.classID, identityID, result.Match.Distance)
	e.notifier.Notify(Event{
		Type:       EventProfessorRecognized,
		ClassID:    e.classID,
		IdentityID: identityID,
		Distance:   result.Match.Distance,
		Timestamp:  ts,
	})
	return result, nil
}

// studentCheckinLocked handles confident matches while in session.
func (e *Engine) studentCheckinLocked(ctx context.Context, result SubmitResult, ts time.Time) (SubmitResult, error) {
	identityID := result.Match.IdentityID

	// The professor reappearing mid-session is a no-op; their event is
	// already on the ledger.
	if identityID == e.professorID {
		result.Outcome = ledger.OutcomeAlreadyPresent
		result.Role = database.RoleProfessor
		return result, nil
	}

	result.Role = database.RoleStudent

	// Repeated sightings within the cooldown are answered without touching
	// the store.
	if last, ok := e.lastSeen[identityID]; ok && ts.Sub(last) < e.cooldown {
		result.Outcome = ledger.OutcomeAlreadyPresent
		e.notifier.Notify(Event{
			Type:       EventAlreadyPresent,
			ClassID:    e.classID,
			IdentityID: identityID,
			Distance:   result.Match.Distance,
			Timestamp:  ts,
		})
		return result, nil
	}

	e.ensureRosterMember(ctx, identityID, database.RoleStudent)

	outcome, err := e.ledger.RecordCheckin(ctx, identityID, ts, database.RoleStudent)
	if err != nil {
		return result, err
	}

	e.lastSeen[identityID] = ts
	result.Outcome = outcome
	if outcome == ledger.OutcomeRecorded {
		e.checkins++
		log.Printf("class %s: check-in recorded for %s (distance %.3f)",
			e.classID, identityID, result.Match.Distance)
	}

	eventType := EventCheckinRecorded
	if outcome == ledger.OutcomeAlreadyPresent {
		eventType = EventAlreadyPresent
	}
	e.notifier.Notify(Event{
		Type:       eventType,
		ClassID:    e.classID,
		IdentityID: identityID,
		Distance:   result.Match.Distance,
		Timestamp:  ts,
	})
	return result, nil
}

// ensureRosterMember adds a recognized identity to the class roster if it
// is not there yet, so the closing summary covers walk-ins. Registered
// before the event append: a roster entry without events is just an
// absence, while an event outside the roster would be invisible in the
// summary.
func (e *Engine) ensureRosterMember(ctx context.Context, identityID string, role database.Role) {
	if _, ok := e.roster[identityID]; ok {
		return
	}
	member := database.RosterMember{
		ClassID:     e.classID,
		IdentityID:  identityID,
		DisplayName: e.names[identityID],
		Role:        role,
		AddedAt:     time.Now(),
	}
	if err := e.store.AddRosterMember(ctx, member); err != nil {
		log.Printf("class %s: failed to add %s to roster: %v", e.classID, identityID, err)
		return
	}
	e.roster[identityID] = role
}

// Stop closes the session. From InSession the summary is recomputed by
// replaying the full event log and persisted; from AwaitingProfessor the
// session is aborted without ledger entries. A stop on an Idle or already
// Closed session is rejected. Durably recorded events are never rolled
// back; if the summary write fails the session still closes, since the
// summary is re-derivable from the log at any time.
func (e *Engine) Stop(ctx context.Context) ([]database.SummaryRow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateIdle, StateClosed:
		return nil, e.rejectLocked("stop")
	case StateAwaitingProfessor:
		e.state = StateClosed
		e.endedAt = time.Now()
		log.Printf("class %s: session aborted before professor was recognized", e.classID)
		e.notifier.Notify(Event{
			Type:      EventSessionClosed,
			ClassID:   e.classID,
			Timestamp: e.endedAt,
		})
		return nil, nil
	}

	e.state = StateClosed
	e.endedAt = time.Now()

	roster, err := e.store.GetRoster(ctx, e.classID)
	if err != nil {
		return nil, err
	}
	rows, err := e.ledger.Close(ctx, roster)
	if err != nil {
		return nil, err
	}

	log.Printf("class %s: session closed, %d check-ins, %d summary rows",
		e.classID, e.checkins, len(rows))
	e.notifier.Notify(Event{
		Type:      EventSessionClosed,
		ClassID:   e.classID,
		Timestamp: e.endedAt,
		Summary:   rows,
	})
	return rows, nil
}

// Snapshot returns a read-only view of the session.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		ClassID:     e.classID,
		State:       e.state,
		ProfessorID: e.professorID,
		StartedAt:   e.startedAt,
		EndedAt:     e.endedAt,
		Checkins:    e.checkins,
	}
}

// rejectLocked logs and returns the invalid-state error.
func (e *Engine) rejectLocked(input string) error {
	log.Printf("class %s: rejected %s in state %s", e.classID, input, e.state)
	return ErrInvalidSessionState
}
