package recommend

import (
	"testing"

	"fitgauge/internal/errors"
	"fitgauge/internal/types"
)

func TestLockOnce(t *testing.T) {
	controller := NewController("session-1")

	locked, err := controller.Lock(types.RecommendationConditionalApply)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}
	if locked.Value != types.RecommendationConditionalApply {
		t.Errorf("locked value = %s, want conditional_apply", locked.Value)
	}
	if locked.LockedAt.IsZero() {
		t.Error("locked recommendation must carry a timestamp")
	}
}

func TestSecondWriteFailsLoudly(t *testing.T) {
	tests := []struct {
		name   string
		second types.Recommendation
	}{
		{"conflicting value", types.RecommendationApply},
		{"same value", types.RecommendationPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := NewController("session-1")
			if _, err := controller.Lock(types.RecommendationPass); err != nil {
				t.Fatalf("first lock failed: %v", err)
			}

			_, err := controller.Lock(tt.second)
			if err == nil {
				t.Fatal("second write must fail")
			}

			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Type != errors.ErrorTypeIntegrity {
				t.Errorf("error type = %s, want integrity", appErr.Type)
			}
			if appErr.Code != errors.ErrCodeRecommendationLocked {
				t.Errorf("error code = %s, want %s", appErr.Code, errors.ErrCodeRecommendationLocked)
			}

			// The original value survives the rejected write.
			got, err := controller.Get()
			if err != nil {
				t.Fatalf("read after rejected write failed: %v", err)
			}
			if got.Value != types.RecommendationPass {
				t.Errorf("value after rejected write = %s, want pass", got.Value)
			}
		})
	}
}

func TestReadBeforeLock(t *testing.T) {
	controller := NewController("session-1")

	if _, err := controller.Get(); err == nil {
		t.Fatal("read before lock must fail")
	}
	if controller.Locked() {
		t.Error("controller reports locked before any write")
	}
}
