package database

import (
	"context"
	"errors"
)

// ErrDuplicateEvent is returned by AppendEvent when an event with the same
// (class_id, identity_id, date) key already exists. Callers treat this as the
// idempotent already-present outcome, not as a failure.
var ErrDuplicateEvent = errors.New("attendance event already recorded for this identity and date")

// ErrNotFound is returned when a requested class or identity does not exist.
var ErrNotFound = errors.New("not found")

// EventStore is the durable append-only attendance ledger for all classes.
type EventStore interface {
	// LoadLedger returns every attendance event for a class ordered by
	// recorded_at, suitable for deterministic replay.
	LoadLedger(ctx context.Context, classID string) ([]AttendanceEvent, error)
	// AppendEvent durably appends one event. Returns ErrDuplicateEvent when
	// the (class_id, identity_id, date) key already exists.
	AppendEvent(ctx context.Context, event AttendanceEvent) error
}

// IdentityReader provides read-only access to enrolled identities.
type IdentityReader interface {
	// GetIdentity retrieves an identity by ID, returns nil if not found
	GetIdentity(ctx context.Context, id string) (*StoredIdentity, error)
	// ListIdentities returns all enrolled identities ordered by ID
	ListIdentities(ctx context.Context) ([]StoredIdentity, error)
	// CountIdentities returns the number of enrolled identities
	CountIdentities(ctx context.Context) (int, error)
	// FindIdentitiesByName retrieves identities whose normalized display name
	// matches the given name (lowercase, no diacritics, dashes to spaces).
	FindIdentitiesByName(ctx context.Context, name string) ([]StoredIdentity, error)
}

// IdentityWriter provides write access to enrolled identities.
type IdentityWriter interface {
	IdentityReader

	// UpsertIdentity inserts or replaces an identity and its centroid.
	UpsertIdentity(ctx context.Context, identity StoredIdentity) error
	// DeleteIdentity removes an identity.
	DeleteIdentity(ctx context.Context, id string) error
}

// ClassReader provides read-only access to classes and rosters.
type ClassReader interface {
	// GetClass retrieves a class by ID, returns nil if not found
	GetClass(ctx context.Context, id string) (*Class, error)
	// ListClasses returns all classes ordered by creation time
	ListClasses(ctx context.Context) ([]Class, error)
	// GetRoster returns the roster for a class ordered by identity ID
	GetRoster(ctx context.Context, classID string) ([]RosterMember, error)
}

// ClassWriter provides write access to classes and rosters.
type ClassWriter interface {
	ClassReader

	// CreateClass stores a new class.
	CreateClass(ctx context.Context, class Class) error
	// AddRosterMember adds an identity to a class roster. Adding the same
	// identity twice is a no-op.
	AddRosterMember(ctx context.Context, member RosterMember) error
}

// SummaryWriter persists derived summary rows.
type SummaryWriter interface {
	// WriteSummary replaces the summary for a class with the given rows.
	WriteSummary(ctx context.Context, classID string, rows []SummaryRow) error
	// GetSummary returns the last written summary rows for a class.
	GetSummary(ctx context.Context, classID string) ([]SummaryRow, error)
}

// Store bundles every persistence concern the attendance engine depends on.
type Store interface {
	EventStore
	IdentityWriter
	ClassWriter
	SummaryWriter
}
