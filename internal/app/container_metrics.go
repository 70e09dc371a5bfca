package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	prometrics "driver-portal/internal/metrics"
)

type metricsOut struct {
	dig.Out
	PersistenceFailuresTotal prometheus.Counter `name:"persistence_failures_total"`
	RateLimitExceededTotal   prometheus.Counter `name:"rate_limit_exceeded_total"`
	CompletionsRecordedTotal prometheus.Counter `name:"completions_recorded_total"`
	ManifestImportsTotal     prometheus.Counter `name:"manifest_imports_total"`
}

// provideMetrics registers the process counters with the default registerer.
// Re-registration (tests, restarts of the container) reuses the existing
// collector instead of failing.
func provideMetrics() (metricsOut, error) {
	failures, err := registerCounter(prometrics.NewPersistenceFailuresTotal())
	if err != nil {
		return metricsOut{}, fmt.Errorf("register persistence_failures_total: %w", err)
	}
	rateLimited, err := registerCounter(prometrics.NewRateLimitExceededTotal())
	if err != nil {
		return metricsOut{}, fmt.Errorf("register rate_limit_exceeded_total: %w", err)
	}
	completions, err := registerCounter(prometrics.NewCompletionsRecordedTotal())
	if err != nil {
		return metricsOut{}, fmt.Errorf("register completions_recorded_total: %w", err)
	}
	imports, err := registerCounter(prometrics.NewManifestImportsTotal())
	if err != nil {
		return metricsOut{}, fmt.Errorf("register manifest_imports_total: %w", err)
	}
	return metricsOut{
		PersistenceFailuresTotal: failures,
		RateLimitExceededTotal:   rateLimited,
		CompletionsRecordedTotal: completions,
		ManifestImportsTotal:     imports,
	}, nil
}

func registerCounter(c prometheus.Counter) (prometheus.Counter, error) {
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}
