package config

import "time"

const (
	defaultPort   = 8080
	defaultDBPath = "driver-portal.db"
)

var defaultStats = Stats{
	RefreshInterval: time.Minute,
}

var defaultDispatch = Dispatch{
	ManifestDir: "",
	Debounce:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       10,
	Burst:      20,
	TTL:        5 * time.Minute,
	MaxBuckets: 1024,
}

var defaultPprof = Pprof{
	Enabled: false,
	Port:    6060,
}

// DefaultPort returns the default HTTP port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDBPath returns the default on-device database path.
func DefaultDBPath() string {
	return defaultDBPath
}

// DefaultStats returns the default statistics refresher settings.
func DefaultStats() Stats {
	return defaultStats
}

// DefaultDispatch returns the default dispatch manifest settings.
func DefaultDispatch() Dispatch {
	return defaultDispatch
}

// DefaultRateLimit returns the default rate limiter settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}

// DefaultPprof returns the default pprof debug server settings.
func DefaultPprof() Pprof {
	return defaultPprof
}
