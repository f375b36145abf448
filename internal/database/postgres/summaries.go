package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// WriteSummary replaces the stored summary for a class with the given rows.
// Delete and insert run in one transaction so readers never see a partially
// replaced summary.
func (s *Store) WriteSummary(ctx context.Context, classID string, rows []database.SummaryRow) error {
	tx, err := s.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write summary for class %s: %w", classID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance_summaries WHERE class_id = $1", classID); err != nil {
		return fmt.Errorf("clear summary for class %s: %w", classID, err)
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_summaries
				(class_id, identity_id, name, summary_date, present_count, absent_count, total_classes, written_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		`, classID, row.IdentityID, row.Name, row.Date, row.PresentCount, row.AbsentCount, row.TotalClasses); err != nil {
			return fmt.Errorf("insert summary row for %s: %w", row.IdentityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit summary for class %s: %w", classID, err)
	}
	return nil
}

// GetSummary returns the last written summary rows for a class.
func (s *Store) GetSummary(ctx context.Context, classID string) ([]database.SummaryRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT identity_id, name, summary_date, present_count, absent_count, total_classes
		FROM attendance_summaries
		WHERE class_id = $1
		ORDER BY identity_id
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("get summary for class %s: %w", classID, err)
	}
	defer rows.Close()

	var summary []database.SummaryRow
	for rows.Next() {
		var row database.SummaryRow
		if err := rows.Scan(
			&row.IdentityID,
			&row.Name,
			&row.Date,
			&row.PresentCount,
			&row.AbsentCount,
			&row.TotalClasses,
		); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary = append(summary, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return summary, nil
}
