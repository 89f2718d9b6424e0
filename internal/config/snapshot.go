package config

import (
	"sync"
	"time"

	"fitgauge/internal/errors"
)

// Snapshot is an immutable, versioned copy of the scoring configuration.
// Every analysis session receives its own snapshot at creation time and
// never observes later updates.
type Snapshot struct {
	Version   int
	LoadedAt  time.Time
	Scoring   ScoringConfig
	AI        AIConfig
	SessionID string
}

// ForSession returns a copy of the snapshot stamped with the session that
// owns it. The copy deep-clones the scoring maps so a session can never
// mutate shared state.
func (s *Snapshot) ForSession(sessionID string) *Snapshot {
	return &Snapshot{
		Version:   s.Version,
		LoadedAt:  s.LoadedAt,
		Scoring:   s.Scoring.clone(),
		AI:        s.AI,
		SessionID: sessionID,
	}
}

// SnapshotStore is the single writer of global scoring configuration. Reads
// return the current immutable snapshot; writes replace the snapshot wholesale
// and bump the version. Writes carrying a session tag are refused so that
// per-candidate data can never leak into global configuration.
type SnapshotStore struct {
	mu      sync.RWMutex
	current *Snapshot
	logger  *errors.Logger
}

// NewSnapshotStore creates a store seeded from the loaded configuration.
func NewSnapshotStore(cfg *Config, logger *errors.Logger) *SnapshotStore {
	return &SnapshotStore{
		current: &Snapshot{
			Version:  1,
			LoadedAt: time.Now(),
			Scoring:  cfg.Scoring.clone(),
			AI:       cfg.AI,
		},
		logger: logger,
	}
}

// Current returns the active snapshot. Callers must treat it as read-only;
// sessions should call ForSession to get their own copy.
func (st *SnapshotStore) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Replace installs a new scoring configuration as the next snapshot version.
// The sessionID identifies the writer: a non-empty value means the write
// originated inside an analysis session and is rejected.
func (st *SnapshotStore) Replace(scoring ScoringConfig, sessionID string) (*Snapshot, error) {
	if sessionID != "" {
		return nil, errors.NewIsolationError(
			errors.ErrCodeTaintedConfigWrite,
			"global configuration writes from inside an analysis session are not permitted",
			nil,
		).WithContext("session_id", sessionID)
	}

	if err := scoring.Validate(); err != nil {
		return nil, errors.NewConfigError(
			errors.ErrCodeInvalidConfig,
			"rejected scoring configuration update",
			err,
		)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	next := &Snapshot{
		Version:  st.current.Version + 1,
		LoadedAt: time.Now(),
		Scoring:  scoring.clone(),
		AI:       st.current.AI,
	}
	st.current = next

	if st.logger != nil {
		st.logger.Info("Scoring configuration snapshot replaced",
			"version", next.Version)
	}

	return next, nil
}
