package observability

import (
	"net/http"

	"fitgauge/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GetObservabilityConfig creates observability configuration from the main config
func GetObservabilityConfig(cfg *config.Config) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "fitgauge",
			ServiceVersion: "dev",
			Enabled:        false,
		}
	}

	return ObservabilityConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Enabled:        cfg.Observability.Enabled,
		ConsoleOutput:  cfg.Observability.ConsoleOutput || cfg.Observability.Console.Enabled,
		PrettyPrint:    cfg.Observability.Console.PrettyPrint,
		SampleRate:     cfg.Observability.SampleRate,
		Prometheus:     GetPrometheusConfig(cfg),
	}
}

// ObservabilityMiddleware adds request attributes to the active span. It runs
// inside the otelhttp middleware, which owns span creation.
func ObservabilityMiddleware(om *ObservabilityManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			span := trace.SpanFromContext(r.Context())
			if span.IsRecording() {
				span.SetAttributes(
					attribute.String("http.route", r.URL.Path),
					attribute.String("http.user_agent", r.UserAgent()),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}
