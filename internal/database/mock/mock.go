// Package mock provides an in-memory implementation of the database
// interfaces for testing and for running without PostgreSQL.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// MockStore is an in-memory implementation of database.Store.
type MockStore struct {
	mu         sync.RWMutex
	identities map[string]*database.StoredIdentity
	classes    map[string]*database.Class
	rosters    map[string][]database.RosterMember    // classID -> members
	events     map[string][]database.AttendanceEvent // classID -> ordered events
	eventKeys  map[string]map[string]struct{}        // classID -> identity/date keys
	summaries  map[string][]database.SummaryRow      // classID -> rows

	// Error injection
	LoadLedgerError   error
	AppendEventError  error
	WriteSummaryError error
	IdentityError     error
	ClassError        error
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		identities: make(map[string]*database.StoredIdentity),
		classes:    make(map[string]*database.Class),
		rosters:    make(map[string][]database.RosterMember),
		events:     make(map[string][]database.AttendanceEvent),
		eventKeys:  make(map[string]map[string]struct{}),
		summaries:  make(map[string][]database.SummaryRow),
	}
}

// LoadLedger returns all events for a class ordered by recorded_at.
func (m *MockStore) LoadLedger(ctx context.Context, classID string) ([]database.AttendanceEvent, error) {
	if m.LoadLedgerError != nil {
		return nil, m.LoadLedgerError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]database.AttendanceEvent, len(m.events[classID]))
	copy(events, m.events[classID])
	sort.Slice(events, func(i, j int) bool {
		return events[i].RecordedAt.Before(events[j].RecordedAt)
	})
	return events, nil
}

// AppendEvent appends one event, enforcing the (class, identity, date) key.
func (m *MockStore) AppendEvent(ctx context.Context, event database.AttendanceEvent) error {
	if m.AppendEventError != nil {
		return m.AppendEventError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := event.IdentityID + "/" + event.Date
	if m.eventKeys[event.ClassID] == nil {
		m.eventKeys[event.ClassID] = make(map[string]struct{})
	}
	if _, ok := m.eventKeys[event.ClassID][key]; ok {
		return database.ErrDuplicateEvent
	}
	m.eventKeys[event.ClassID][key] = struct{}{}
	m.events[event.ClassID] = append(m.events[event.ClassID], event)
	return nil
}

// EventCount returns the number of stored events for a class.
func (m *MockStore) EventCount(classID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events[classID])
}

// GetIdentity retrieves an identity by ID, returns nil if not found.
func (m *MockStore) GetIdentity(ctx context.Context, id string) (*database.StoredIdentity, error) {
	if m.IdentityError != nil {
		return nil, m.IdentityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identities[id], nil
}

// ListIdentities returns all identities ordered by ID.
func (m *MockStore) ListIdentities(ctx context.Context) ([]database.StoredIdentity, error) {
	if m.IdentityError != nil {
		return nil, m.IdentityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.identities))
	for id := range m.identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	identities := make([]database.StoredIdentity, 0, len(ids))
	for _, id := range ids {
		identities = append(identities, *m.identities[id])
	}
	return identities, nil
}

// CountIdentities returns the number of enrolled identities.
func (m *MockStore) CountIdentities(ctx context.Context) (int, error) {
	if m.IdentityError != nil {
		return 0, m.IdentityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// FindIdentitiesByName retrieves identities matching a normalized display name.
func (m *MockStore) FindIdentitiesByName(ctx context.Context, name string) ([]database.StoredIdentity, error) {
	if m.IdentityError != nil {
		return nil, m.IdentityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := matcher.NormalizeDisplayName(name)
	var result []database.StoredIdentity
	for _, identity := range m.identities {
		if matcher.NormalizeDisplayName(identity.DisplayName) == normalized {
			result = append(result, *identity)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpsertIdentity inserts or replaces an identity.
func (m *MockStore) UpsertIdentity(ctx context.Context, identity database.StoredIdentity) error {
	if m.IdentityError != nil {
		return m.IdentityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[identity.ID] = &identity
	return nil
}

// DeleteIdentity removes an identity.
func (m *MockStore) DeleteIdentity(ctx context.Context, id string) error {
	if m.IdentityError != nil {
		return m.IdentityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, id)
	return nil
}

// GetClass retrieves a class by ID, returns nil if not found.
func (m *MockStore) GetClass(ctx context.Context, id string) (*database.Class, error) {
	if m.ClassError != nil {
		return nil, m.ClassError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.classes[id], nil
}

// ListClasses returns all classes ordered by creation time.
func (m *MockStore) ListClasses(ctx context.Context) ([]database.Class, error) {
	if m.ClassError != nil {
		return nil, m.ClassError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	classes := make([]database.Class, 0, len(m.classes))
	for _, c := range m.classes {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].CreatedAt.Before(classes[j].CreatedAt)
	})
	return classes, nil
}

// GetRoster returns the roster for a class ordered by identity ID.
func (m *MockStore) GetRoster(ctx context.Context, classID string) ([]database.RosterMember, error) {
	if m.ClassError != nil {
		return nil, m.ClassError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	roster := make([]database.RosterMember, len(m.rosters[classID]))
	copy(roster, m.rosters[classID])
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].IdentityID < roster[j].IdentityID
	})
	return roster, nil
}

// CreateClass stores a new class.
func (m *MockStore) CreateClass(ctx context.Context, class database.Class) error {
	if m.ClassError != nil {
		return m.ClassError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[class.ID] = &class
	return nil
}

// AddRosterMember adds an identity to a class roster; duplicates are no-ops.
func (m *MockStore) AddRosterMember(ctx context.Context, member database.RosterMember) error {
	if m.ClassError != nil {
		return m.ClassError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.rosters[member.ClassID] {
		if existing.IdentityID == member.IdentityID {
			return nil
		}
	}
	m.rosters[member.ClassID] = append(m.rosters[member.ClassID], member)
	return nil
}

// WriteSummary replaces the summary rows for a class.
func (m *MockStore) WriteSummary(ctx context.Context, classID string, rows []database.SummaryRow) error {
	if m.WriteSummaryError != nil {
		return m.WriteSummaryError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]database.SummaryRow, len(rows))
	copy(stored, rows)
	m.summaries[classID] = stored
	return nil
}

// GetSummary returns the last written summary rows for a class.
func (m *MockStore) GetSummary(ctx context.Context, classID string) ([]database.SummaryRow, error) {
	if m.WriteSummaryError != nil {
		return nil, m.WriteSummaryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := make([]database.SummaryRow, len(m.summaries[classID]))
	copy(rows, m.summaries[classID])
	return rows, nil
}
