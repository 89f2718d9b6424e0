package config

import (
	"errors"
	"testing"

	fitgaugeErrors "fitgauge/internal/errors"
)

func testStore(t *testing.T) *SnapshotStore {
	t.Helper()
	cfg := &Config{Scoring: validScoring()}
	return NewSnapshotStore(cfg, nil)
}

func TestSnapshotStoreReplaceBumpsVersion(t *testing.T) {
	store := testStore(t)

	first := store.Current()
	if first.Version != 1 {
		t.Fatalf("initial version = %d, want 1", first.Version)
	}

	updated := validScoring()
	updated.Frameworks.MinSignals["senior"] = 4

	next, err := store.Replace(updated, "")
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if next.Version != 2 {
		t.Errorf("new version = %d, want 2", next.Version)
	}
	if store.Current().Version != 2 {
		t.Errorf("Current() version = %d, want 2", store.Current().Version)
	}

	// The earlier snapshot keeps its original values
	if first.Scoring.Frameworks.MinSignals["senior"] != 3 {
		t.Error("previous snapshot observed the replacement")
	}
}

func TestSnapshotStoreRejectsSessionTaintedWrites(t *testing.T) {
	store := testStore(t)

	_, err := store.Replace(validScoring(), "session-123")
	if err == nil {
		t.Fatal("expected session-tainted write to be rejected")
	}

	var appErr *fitgaugeErrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != fitgaugeErrors.ErrCodeTaintedConfigWrite {
		t.Errorf("error code = %s, want %s", appErr.Code, fitgaugeErrors.ErrCodeTaintedConfigWrite)
	}
	if store.Current().Version != 1 {
		t.Errorf("version changed after rejected write: %d", store.Current().Version)
	}
}

func TestSnapshotStoreRejectsInvalidScoring(t *testing.T) {
	store := testStore(t)

	bad := validScoring()
	bad.Keyword.DensityThreshold = 0

	if _, err := store.Replace(bad, ""); err == nil {
		t.Fatal("expected invalid scoring configuration to be rejected")
	}
	if store.Current().Version != 1 {
		t.Errorf("version changed after rejected write: %d", store.Current().Version)
	}
}

func TestSnapshotForSessionIsIsolated(t *testing.T) {
	store := testStore(t)

	sessionCopy := store.Current().ForSession("session-abc")
	if sessionCopy.SessionID != "session-abc" {
		t.Errorf("SessionID = %q, want session-abc", sessionCopy.SessionID)
	}

	sessionCopy.Scoring.Frameworks.MinSignals["senior"] = 99
	sessionCopy.Scoring.Penalties.Defaults["experience_gap"] = 99

	global := store.Current()
	if global.Scoring.Frameworks.MinSignals["senior"] != 3 {
		t.Error("session copy shares minSignals with the global snapshot")
	}
	if global.Scoring.Penalties.Defaults["experience_gap"] != 25 {
		t.Error("session copy shares penalty defaults with the global snapshot")
	}
}
