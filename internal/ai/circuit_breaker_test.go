package ai

import (
	"errors"
	"testing"
	"time"

	"fitgauge/internal/config"
	fitgaugeErrors "fitgauge/internal/errors"

	"google.golang.org/genai"
)

func testBreakerConfig(enabled bool) config.AIConfig {
	return config.AIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

func testLogger() *fitgaugeErrors.Logger {
	logger, _ := fitgaugeErrors.New("error")
	return logger
}

func TestDisabledBreakerExecutesDirectly(t *testing.T) {
	cb := NewNarrativeCircuitBreaker(testBreakerConfig(false), testLogger())
	if cb != nil {
		t.Fatal("disabled breaker should be nil")
	}

	called := false
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		called = true
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("function not executed through nil breaker")
	}

	if !cb.IsHealthy() {
		t.Error("nil breaker must report healthy")
	}

	stats := cb.GetStats()
	if enabled, ok := stats["enabled"].(bool); !ok || enabled {
		t.Errorf("disabled breaker stats = %v", stats)
	}
}

func TestBreakerTripsAfterFailures(t *testing.T) {
	cb := NewNarrativeCircuitBreaker(testBreakerConfig(true), testLogger())
	if cb == nil {
		t.Fatal("enabled breaker should not be nil")
	}

	failing := func() (*genai.GenerateContentResponse, error) {
		return nil, errors.New("provider unavailable")
	}

	for range 5 {
		_, _ = cb.Execute(failing)
	}

	if cb.IsHealthy() {
		t.Error("breaker should be open after consecutive failures")
	}

	stats := cb.GetStats()
	if state, ok := stats["state"].(string); !ok || state == "closed" {
		t.Errorf("expected open state, got %v", stats["state"])
	}
}

func TestModelBreakerDisabled(t *testing.T) {
	mb := NewModelCircuitBreaker(testBreakerConfig(false), testLogger())
	if mb != nil {
		t.Fatal("disabled model breaker should be nil")
	}

	model, err := mb.ExecuteModel(func() (*genai.Model, error) {
		return &genai.Model{Name: "test"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Name != "test" {
		t.Errorf("model name = %s", model.Name)
	}
	if !mb.IsModelHealthy() {
		t.Error("nil model breaker must report healthy")
	}
}
