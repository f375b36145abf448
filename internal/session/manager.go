package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// Manager owns the active session engines, keyed by class ID. There is no
// process-wide current session: every engine is constructed on the start
// signal and discarded on close, and engines for different classes share no
// mutable state.
type Manager struct {
	store     database.Store
	threshold float64
	cooldown  time.Duration
	notifier  Notifier

	mu      sync.Mutex
	engines map[string]*Engine
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier installs a session event notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithRepeatCooldown overrides the repeated-sighting cooldown window.
func WithRepeatCooldown(d time.Duration) Option {
	return func(m *Manager) { m.cooldown = d }
}

// NewManager creates a session manager matching embeddings with the given
// cosine distance threshold.
func NewManager(store database.Store, threshold float64, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		threshold: threshold,
		cooldown:  DefaultRepeatCooldown,
		notifier:  NotifierFunc(func(Event) {}),
		engines:   make(map[string]*Engine),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartSession handles the start signal for a class: it snapshots the
// enrolled centroid set, hydrates the class ledger, and arms a new engine.
// Only one active session per class is allowed; a second start while one is
// running is rejected with ErrInvalidSessionState.
func (m *Manager) StartSession(ctx context.Context, classID string) (Snapshot, error) {
	class, err := m.store.GetClass(ctx, classID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading class %s: %w", classID, err)
	}
	if class == nil {
		return Snapshot{}, fmt.Errorf("class %s: %w", classID, database.ErrNotFound)
	}

	m.mu.Lock()
	if _, active := m.engines[classID]; active {
		m.mu.Unlock()
		return Snapshot{}, fmt.Errorf("class %s already has an active session: %w", classID, ErrInvalidSessionState)
	}
	m.mu.Unlock()

	identities, err := m.store.ListIdentities(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading identities: %w", err)
	}
	if len(identities) == 0 {
		// Valid degraded state: every submit resolves to unknown until
		// identities are enrolled.
		log.Printf("class %s: starting session with empty centroid set, all faces will be unknown", classID)
	}

	match := matcher.New(m.threshold)
	match.SetIdentities(toMatcherIdentities(identities))

	led, err := ledger.Open(ctx, m.store, classID)
	if err != nil {
		return Snapshot{}, err
	}

	roster, err := m.store.GetRoster(ctx, classID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading roster for class %s: %w", classID, err)
	}

	engine := &Engine{
		classID:  classID,
		store:    m.store,
		match:    match,
		ledger:   led,
		names:    displayNames(identities),
		roster:   rosterRoles(roster),
		cooldown: m.cooldown,
		notifier: m.notifier,
		state:    StateIdle,
		lastSeen: make(map[string]time.Time),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, active := m.engines[classID]; active {
		return Snapshot{}, fmt.Errorf("class %s already has an active session: %w", classID, ErrInvalidSessionState)
	}
	if err := engine.start(); err != nil {
		return Snapshot{}, err
	}
	m.engines[classID] = engine
	return engine.Snapshot(), nil
}

// Submit routes an embedding to the class's active session engine.
// Submitting to a class without an active session is a usage error.
func (m *Manager) Submit(ctx context.Context, classID string, embedding []float32, ts time.Time) (SubmitResult, error) {
	engine := m.engine(classID)
	if engine == nil {
		return SubmitResult{}, fmt.Errorf("class %s has no active session: %w", classID, ErrInvalidSessionState)
	}
	return engine.Submit(ctx, embedding, ts)
}

// StopSession handles the stop signal: the engine closes and is discarded.
// The engine is removed even when the summary write fails, since recorded
// events are durable and the summary can be recomputed from the log.
func (m *Manager) StopSession(ctx context.Context, classID string) ([]database.SummaryRow, error) {
	engine := m.engine(classID)
	if engine == nil {
		return nil, fmt.Errorf("class %s has no active session: %w", classID, ErrInvalidSessionState)
	}

	rows, err := engine.Stop(ctx)
	if engine.Snapshot().State == StateClosed {
		m.mu.Lock()
		delete(m.engines, classID)
		m.mu.Unlock()
	}
	return rows, err
}

// Session returns a snapshot of the active session for a class.
func (m *Manager) Session(classID string) (Snapshot, bool) {
	engine := m.engine(classID)
	if engine == nil {
		return Snapshot{}, false
	}
	return engine.Snapshot(), true
}

// ActiveSessions returns snapshots of all running sessions ordered by class ID.
func (m *Manager) ActiveSessions() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots := make([]Snapshot, 0, len(m.engines))
	for _, engine := range m.engines {
		snapshots = append(snapshots, engine.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ClassID < snapshots[j].ClassID
	})
	return snapshots
}

func (m *Manager) engine(classID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engines[classID]
}

// toMatcherIdentities converts stored identities to the matcher's type.
func toMatcherIdentities(identities []database.StoredIdentity) []matcher.Identity {
	result := make([]matcher.Identity, len(identities))
	for i, identity := range identities {
		result[i] = matcher.Identity{
			ID:          identity.ID,
			DisplayName: identity.DisplayName,
			Centroid:    identity.Centroid,
			SampleCount: identity.SampleCount,
		}
	}
	return result
}

// displayNames builds the identityID -> display name lookup.
func displayNames(identities []database.StoredIdentity) map[string]string {
	names := make(map[string]string, len(identities))
	for _, identity := range identities {
		names[identity.ID] = identity.DisplayName
	}
	return names
}

// rosterRoles builds the identityID -> role lookup.
func rosterRoles(roster []database.RosterMember) map[string]database.Role {
	roles := make(map[string]database.Role, len(roster))
	for _, member := range roster {
		roles[member.IdentityID] = member.Role
	}
	return roles
}
