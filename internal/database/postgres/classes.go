package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// GetClass retrieves a class by ID, returns nil if not found.
func (s *Store) GetClass(ctx context.Context, id string) (*database.Class, error) {
	var class database.Class
	var professorID sql.NullString
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, professor_id, created_at
		FROM classes
		WHERE id = $1
	`, id).Scan(&class.ID, &class.Name, &professorID, &class.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class %s: %w", id, err)
	}
	class.ProfessorID = professorID.String
	return &class, nil
}

// ListClasses returns all classes ordered by creation time.
func (s *Store) ListClasses(ctx context.Context) ([]database.Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, professor_id, created_at
		FROM classes
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var classes []database.Class
	for rows.Next() {
		var class database.Class
		var professorID sql.NullString
		if err := rows.Scan(&class.ID, &class.Name, &professorID, &class.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		class.ProfessorID = professorID.String
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classes: %w", err)
	}
	return classes, nil
}

// GetRoster returns the roster for a class ordered by identity ID.
func (s *Store) GetRoster(ctx context.Context, classID string) ([]database.RosterMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT class_id, identity_id, display_name, role, added_at
		FROM class_roster
		WHERE class_id = $1
		ORDER BY identity_id
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("get roster for class %s: %w", classID, err)
	}
	defer rows.Close()

	var roster []database.RosterMember
	for rows.Next() {
		var member database.RosterMember
		if err := rows.Scan(
			&member.ClassID,
			&member.IdentityID,
			&member.DisplayName,
			&member.Role,
			&member.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan roster member: %w", err)
		}
		roster = append(roster, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return roster, nil
}

// CreateClass stores a new class.
func (s *Store) CreateClass(ctx context.Context, class database.Class) error {
	var professorID any
	if class.ProfessorID != "" {
		professorID = class.ProfessorID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO classes (id, name, professor_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`, class.ID, class.Name, professorID)
	if err != nil {
		return fmt.Errorf("create class %s: %w", class.ID, err)
	}
	return nil
}

// AddRosterMember adds an identity to a class roster. Adding the same
// identity twice is a no-op.
func (s *Store) AddRosterMember(ctx context.Context, member database.RosterMember) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO class_roster (class_id, identity_id, display_name, role, added_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (class_id, identity_id) DO NOTHING
	`, member.ClassID, member.IdentityID, member.DisplayName, member.Role)
	if err != nil {
		return fmt.Errorf("add roster member %s to class %s: %w", member.IdentityID, member.ClassID, err)
	}
	return nil
}
