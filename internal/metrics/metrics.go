package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewPersistenceFailuresTotal returns a Prometheus counter for failed writes to on-device storage
func NewPersistenceFailuresTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "persistence_failures_total",
		Help: "Total number of failed reads/writes against on-device storage",
	})
}

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewCompletionsRecordedTotal returns a Prometheus counter for completion events appended to the ledger
func NewCompletionsRecordedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "completions_recorded_total",
		Help: "Total number of delivery completions appended to the ledger",
	})
}

// NewManifestImportsTotal returns a Prometheus counter for dispatch manifest imports
func NewManifestImportsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "manifest_imports_total",
		Help: "Total number of dispatch manifest files imported",
	})
}
