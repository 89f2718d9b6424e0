package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a health check endpoint including narrative model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "fitgauge",
		"version": s.Version,
	}

	// Check narrative model availability
	modelStatus := s.checkNarrativeModelHealth()
	response["narrative_model"] = modelStatus

	// Check circuit breaker status
	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	// Report the active configuration snapshot and watcher state
	response["scoring_config"] = s.scoringConfigStatus()

	// Determine overall health status
	overallHealthy := true
	if available, ok := modelStatus["available"].(bool); ok && !available {
		overallHealthy = false
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkNarrativeModelHealth checks the narrative provider's model
func (s *Server) checkNarrativeModelHealth() map[string]any {
	if s.AIService == nil {
		return map[string]any{
			"available": false,
			"error":     "narrative service not configured",
		}
	}

	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	info := s.AIService.Provider.GetModelInfo(ctx)
	if info == nil {
		return map[string]any{
			"available": false,
			"error":     "model info unavailable",
		}
	}

	return map[string]any{
		"available": info.Available,
		"name":      info.Name,
		"version":   info.Version,
		"error":     info.Error,
	}
}

// checkCircuitBreakerHealth reports breaker state for the narrative provider
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	if s.AIService == nil {
		return map[string]any{"available": false}
	}

	type breakerStats interface {
		GetCircuitBreakerStats() map[string]any
	}

	if provider, ok := s.AIService.Provider.(breakerStats); ok {
		return provider.GetCircuitBreakerStats()
	}

	return map[string]any{
		"available": true,
		"message":   "provider does not expose circuit breaker stats",
	}
}

// scoringConfigStatus reports the active snapshot version and the frameworks
// watcher state
func (s *Server) scoringConfigStatus() map[string]any {
	status := map[string]any{}

	if s.Snapshots != nil {
		snapshot := s.Snapshots.Current()
		status["version"] = snapshot.Version
		status["loaded_at"] = snapshot.LoadedAt
	}

	if s.frameworksWatcher != nil {
		status["hot_reload"] = map[string]any{
			"enabled": true,
			"running": s.frameworksWatcher.IsRunning(),
		}
	} else {
		status["hot_reload"] = map[string]any{
			"enabled": false,
		}
	}

	return status
}

// statsHandler provides server statistics including session and rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "fitgauge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Session lifecycle counters. Sealed counts are the only thing that
	// survives a session; no per-candidate data is reported here.
	if s.Sessions != nil {
		active, sealed := s.Sessions.Stats()
		response["sessions"] = map[string]any{
			"active": active,
			"sealed": sealed,
		}
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
