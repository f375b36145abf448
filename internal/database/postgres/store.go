package postgres

import (
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Store implements database.Store on a PostgreSQL pool.
type Store struct {
	pool *Pool
}

var _ database.Store = (*Store)(nil)

// NewStore creates a store backed by the given pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}
