package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"fitgauge/internal/config"
	"fitgauge/internal/errors"
)

// Status tracks a session's lifecycle. Only active sessions occupy the status
// map; sealing removes the entry, so an absent session reads as the zero
// value and fails every active check.
type Status string

const StatusActive Status = "active"

// Manager owns the per-session record store and the isolation rules around
// it. Every record created during a run is tagged with its session ID; on
// sealing, all tagged records are destroyed, on success and failure paths
// alike. Reads across session boundaries are refused. Global configuration
// is only reachable through the immutable snapshot handed out at creation.
type Manager struct {
	mu        sync.RWMutex
	snapshots *config.SnapshotStore
	records   map[string]map[string]any
	status    map[string]Status
	sealed    uint64
	logger    *errors.Logger
}

// NewManager creates a session manager backed by the given snapshot store.
func NewManager(snapshots *config.SnapshotStore, logger *errors.Logger) *Manager {
	return &Manager{
		snapshots: snapshots,
		records:   make(map[string]map[string]any),
		status:    make(map[string]Status),
		logger:    logger,
	}
}

// Session is one isolated analysis run. It holds its own snapshot of the
// global configuration; concurrent configuration updates never reach it.
type Session struct {
	ID        string
	CreatedAt time.Time
	Snapshot  *config.Snapshot

	manager *Manager
}

// Create allocates a new session with a unique identifier and a private
// snapshot of the current global configuration.
func (m *Manager) Create() *Session {
	id := uuid.NewString()

	m.mu.Lock()
	m.records[id] = make(map[string]any)
	m.status[id] = StatusActive
	m.mu.Unlock()

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Snapshot:  m.snapshots.Current().ForSession(id),
		manager:   m,
	}

	if m.logger != nil {
		m.logger.Debug("Analysis session created",
			"session_id", id,
			"config_version", s.Snapshot.Version)
	}

	return s
}

// Put stores a record tagged with this session's identifier. Writes into a
// sealed session are refused.
func (s *Session) Put(key string, value any) error {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()

	if s.manager.status[s.ID] != StatusActive {
		return errors.NewIsolationError(
			errors.ErrCodeSessionSealed,
			"session is sealed, its records have been destroyed",
			nil,
		).WithContext("session_id", s.ID)
	}

	s.manager.records[s.ID][key] = value
	return nil
}

// Get reads one of this session's own records.
func (s *Session) Get(key string) (any, error) {
	return s.manager.Read(s.ID, s.ID, key)
}

// Read fetches a record owned by ownerID on behalf of requestorID. Any read
// across session identifiers is refused with an isolation error; sealed
// sessions hold nothing to read.
func (m *Manager) Read(requestorID, ownerID, key string) (any, error) {
	if requestorID != ownerID {
		return nil, errors.NewIsolationError(
			errors.ErrCodeForeignSession,
			"session-tagged data is not readable outside its own session",
			nil,
		).WithContext("requestor", requestorID).WithContext("owner", ownerID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.status[ownerID] != StatusActive {
		return nil, errors.NewIsolationError(
			errors.ErrCodeSessionSealed,
			"session is sealed, its records have been destroyed",
			nil,
		).WithContext("session_id", ownerID)
	}

	value, ok := m.records[ownerID][key]
	if !ok {
		return nil, errors.NewIsolationError(
			errors.ErrCodeForeignSession,
			"no such record in session",
			nil,
		).WithContext("session_id", ownerID).WithContext("key", key)
	}

	return value, nil
}

// Seal destroys every record tagged with this session and closes it. Safe to
// call more than once; the defer path and the cancellation path may race.
// Both map entries are removed so the manager holds no per-session state
// after a run; only the sealed counter survives.
func (s *Session) Seal() {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()

	if s.manager.status[s.ID] != StatusActive {
		return
	}

	delete(s.manager.records, s.ID)
	delete(s.manager.status, s.ID)
	s.manager.sealed++

	// Snapshot copy goes too; nothing candidate-scoped survives the run.
	s.Snapshot = nil

	if s.manager.logger != nil {
		s.manager.logger.Debug("Analysis session sealed", "session_id", s.ID)
	}
}

// Sealed reports whether the session has been sealed.
func (s *Session) Sealed() bool {
	s.manager.mu.RLock()
	defer s.manager.mu.RUnlock()
	return s.manager.status[s.ID] != StatusActive
}

// ReplaceScoring gatekeeps writes into global configuration. The source
// session ID travels with the write; the snapshot store rejects any write
// originating from session-tagged data.
func (m *Manager) ReplaceScoring(scoring config.ScoringConfig, sourceSessionID string) (*config.Snapshot, error) {
	return m.snapshots.Replace(scoring, sourceSessionID)
}

// Stats returns the counts the stats endpoint reports. Sealed sessions leave
// no map entries behind, so every remaining status entry is an active run.
func (m *Manager) Stats() (active int, sealed uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.status), m.sealed
}
