// Package ledger maintains the per-class attendance record: duplicate
// checking for check-ins and summary projection from the event log.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// ErrPersistenceUnavailable wraps durable-write failures. The event is not
// recorded; callers may retry the check-in.
var ErrPersistenceUnavailable = errors.New("persistence unavailable")

// Outcome is the typed result of a check-in attempt. Both values are
// expected, common results rather than errors.
type Outcome string

const (
	// OutcomeRecorded means a new attendance event was durably appended.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeAlreadyPresent means the identity already had an event for
	// that date; nothing was written.
	OutcomeAlreadyPresent Outcome = "already_present"
)

// EventDate converts a check-in timestamp to the calendar date used as the
// dedup key.
func EventDate(ts time.Time) string {
	return ts.Format(time.DateOnly)
}

// Ledger is the attendance record for one class. It keeps an in-memory view
// of (identity, date) keys hydrated from the durable event log; the log
// itself stays the single source of truth. A Ledger is not safe for
// concurrent use; the session engine drives it sequentially per class.
type Ledger struct {
	classID string
	store   database.Store
	seen    map[string]struct{} // identityID + "/" + date
}

// Open loads the durable event log for a class and builds the dedup view.
func Open(ctx context.Context, store database.Store, classID string) (*Ledger, error) {
	events, err := store.LoadLedger(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading ledger for class %s: %v", ErrPersistenceUnavailable, classID, err)
	}

	l := &Ledger{
		classID: classID,
		store:   store,
		seen:    make(map[string]struct{}, len(events)),
	}
	for _, e := range events {
		l.seen[dedupKey(e.IdentityID, e.Date)] = struct{}{}
	}
	return l, nil
}

func dedupKey(identityID, date string) string {
	return identityID + "/" + date
}

// RecordCheckin records one attendance event for the identity on the
// timestamp's calendar date. Returns OutcomeAlreadyPresent without writing
// when an event for that (identity, date) already exists. OutcomeRecorded is
// only returned after the append is acknowledged durable; on persistence
// failure the event does not exist and the error wraps
// ErrPersistenceUnavailable.
func (l *Ledger) RecordCheckin(ctx context.Context, identityID string, ts time.Time, role database.Role) (Outcome, error) {
	date := EventDate(ts)
	key := dedupKey(identityID, date)

	if _, ok := l.seen[key]; ok {
		return OutcomeAlreadyPresent, nil
	}

	event := database.AttendanceEvent{
		ID:         uuid.NewString(),
		ClassID:    l.classID,
		IdentityID: identityID,
		Date:       date,
		RecordedAt: ts,
		Role:       role,
	}

	err := l.store.AppendEvent(ctx, event)
	if errors.Is(err, database.ErrDuplicateEvent) {
		// Another writer got there first; the invariant held at the store.
		l.seen[key] = struct{}{}
		return OutcomeAlreadyPresent, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: appending event: %v", ErrPersistenceUnavailable, err)
	}

	l.seen[key] = struct{}{}
	return OutcomeRecorded, nil
}

// HasCheckin reports whether an event exists for the identity on the given date.
func (l *Ledger) HasCheckin(identityID, date string) bool {
	_, ok := l.seen[dedupKey(identityID, date)]
	return ok
}

// Close recomputes the class summary by replaying the full durable event
// log against the roster and replaces the stored summary. Roster members
// without an event on a session date count as absent for that date. The
// projection is deterministic, so closing twice without new events writes
// identical rows.
func (l *Ledger) Close(ctx context.Context, roster []database.RosterMember) ([]database.SummaryRow, error) {
	events, err := l.store.LoadLedger(ctx, l.classID)
	if err != nil {
		return nil, fmt.Errorf("%w: replaying ledger for class %s: %v", ErrPersistenceUnavailable, l.classID, err)
	}

	rows := BuildSummary(events, roster)

	if err := l.store.WriteSummary(ctx, l.classID, rows); err != nil {
		return nil, fmt.Errorf("%w: writing summary: %v", ErrPersistenceUnavailable, err)
	}
	return rows, nil
}
