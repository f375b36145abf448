package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/kozaktomas/face-attendance/internal/database"
)

const uniqueViolation = "23505"

// LoadLedger returns every attendance event for a class ordered by
// recorded_at, suitable for deterministic replay.
func (s *Store) LoadLedger(ctx context.Context, classID string) ([]database.AttendanceEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, class_id, identity_id, event_date, recorded_at, role
		FROM attendance_events
		WHERE class_id = $1
		ORDER BY recorded_at, id
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("load ledger for class %s: %w", classID, err)
	}
	defer rows.Close()

	var events []database.AttendanceEvent
	for rows.Next() {
		var event database.AttendanceEvent
		var date time.Time
		if err := rows.Scan(
			&event.ID,
			&event.ClassID,
			&event.IdentityID,
			&date,
			&event.RecordedAt,
			&event.Role,
		); err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		event.Date = date.Format(time.DateOnly)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance events: %w", err)
	}
	return events, nil
}

// AppendEvent durably appends one attendance event. The unique constraint on
// (class_id, identity_id, event_date) is the authority on duplicates, so two
// writers racing on the same check-in resolve to exactly one stored event;
// the loser gets database.ErrDuplicateEvent.
func (s *Store) AppendEvent(ctx context.Context, event database.AttendanceEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO attendance_events (id, class_id, identity_id, event_date, recorded_at, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.ClassID, event.IdentityID, event.Date, event.RecordedAt, event.Role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return database.ErrDuplicateEvent
		}
		return fmt.Errorf("append attendance event: %w", err)
	}
	return nil
}
