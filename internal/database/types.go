package database

import (
	"time"
)

// Role distinguishes the professor check-in that opens a session from
// ordinary student check-ins.
type Role string

const (
	RoleProfessor Role = "professor"
	RoleStudent   Role = "student"
)

// StoredIdentity is an enrolled identity persisted with its trained centroid.
type StoredIdentity struct {
	ID          string
	DisplayName string
	Centroid    []float32
	Dim         int
	SampleCount int // enrollment embeddings averaged into the centroid
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AttendanceEvent is one immutable attendance record. Events are append-only;
// the (ClassID, IdentityID, Date) triple is unique per class ledger.
type AttendanceEvent struct {
	ID         string // uuid
	ClassID    string
	IdentityID string
	Date       string // session calendar date, YYYY-MM-DD
	RecordedAt time.Time
	Role       Role
}

// Class is one course whose meetings are tracked.
type Class struct {
	ID          string // uuid
	Name        string
	ProfessorID string // identity ID of the owning professor
	CreatedAt   time.Time
}

// RosterMember links an identity to a class. DisplayName is denormalized
// from the identity for listing without a join.
type RosterMember struct {
	ClassID     string
	IdentityID  string
	DisplayName string
	Role        Role
	AddedAt     time.Time
}

// SummaryRow is one derived per-identity attendance summary line. Rows are
// recomputed from the full event log plus the roster and replaced wholesale;
// they are never incrementally mutated.
type SummaryRow struct {
	IdentityID   string `json:"identity_id"`
	Name         string `json:"name"`
	Date         string `json:"date"` // most recent session date covered by the summary
	PresentCount int    `json:"present"`
	AbsentCount  int    `json:"absent"`
	TotalClasses int    `json:"total"`
}
