package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// GetIdentity retrieves an identity by ID, returns nil if not found.
func (s *Store) GetIdentity(ctx context.Context, id string) (*database.StoredIdentity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, display_name, centroid, dim, sample_count, created_at, updated_at
		FROM identities
		WHERE id = $1
	`, id)

	identity, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get identity %s: %w", id, err)
	}
	return identity, nil
}

// ListIdentities returns all enrolled identities ordered by ID.
func (s *Store) ListIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, centroid, dim, sample_count, created_at, updated_at
		FROM identities
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	return collectIdentities(rows)
}

// CountIdentities returns the number of enrolled identities.
func (s *Store) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// FindIdentitiesByName retrieves identities whose display name matches the
// given name after normalization on both sides: lowercase, diacritics
// stripped, dashes treated as spaces.
func (s *Store) FindIdentitiesByName(ctx context.Context, name string) ([]database.StoredIdentity, error) {
	normalized := matcher.NormalizeDisplayName(name)

	rows, err := s.pool.Query(ctx, `
		SELECT id, display_name, centroid, dim, sample_count, created_at, updated_at
		FROM identities
		WHERE LOWER(REPLACE(unaccent(display_name), '-', ' ')) = $1
		ORDER BY id
	`, normalized)
	if err != nil {
		return nil, fmt.Errorf("find identities by name: %w", err)
	}
	defer rows.Close()

	return collectIdentities(rows)
}

// UpsertIdentity inserts or replaces an identity and its centroid.
func (s *Store) UpsertIdentity(ctx context.Context, identity database.StoredIdentity) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO identities (id, display_name, centroid, dim, sample_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			centroid = EXCLUDED.centroid,
			dim = EXCLUDED.dim,
			sample_count = EXCLUDED.sample_count,
			updated_at = NOW()
	`, identity.ID, identity.DisplayName, pgvector.NewVector(identity.Centroid), identity.Dim, identity.SampleCount)
	if err != nil {
		return fmt.Errorf("upsert identity %s: %w", identity.ID, err)
	}
	return nil
}

// DeleteIdentity removes an identity.
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM identities WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("delete identity %s: %w", id, database.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*database.StoredIdentity, error) {
	var identity database.StoredIdentity
	var vec pgvector.Vector
	if err := row.Scan(
		&identity.ID,
		&identity.DisplayName,
		&vec,
		&identity.Dim,
		&identity.SampleCount,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	identity.Centroid = vec.Slice()
	return &identity, nil
}

func collectIdentities(rows *sql.Rows) ([]database.StoredIdentity, error) {
	var identities []database.StoredIdentity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, *identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}
