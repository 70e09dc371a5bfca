package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores driver-portal settings.
type Config struct {
	Port      int
	DBPath    string
	Stats     Stats
	Dispatch  Dispatch
	RateLimit RateLimit
	Pprof     Pprof
}

// Stats stores statistics refresher settings.
type Stats struct {
	RefreshInterval time.Duration
}

// Dispatch stores dispatch manifest watcher settings. An empty ManifestDir
// disables the watcher.
type Dispatch struct {
	ManifestDir string
	Debounce    time.Duration
}

// RateLimit stores token bucket limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores pprof debug server settings.
type Pprof struct {
	Enabled bool
	Port    int
	User    string
	Pass    string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      DefaultPort(),
		DBPath:    DefaultDBPath(),
		Stats:     DefaultStats(),
		Dispatch:  DefaultDispatch(),
		RateLimit: DefaultRateLimit(),
		Pprof:     DefaultPprof(),
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the on-device sqlite database")
	pflag.StringVar(&cfg.Dispatch.ManifestDir, "manifest-dir", cfg.Dispatch.ManifestDir,
		"directory watched for dispatch manifests (empty disables the watcher)")
	pflag.BoolVar(&cfg.Pprof.Enabled, "pprof", cfg.Pprof.Enabled, "enable the pprof debug server")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STATS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid STATS_REFRESH_INTERVAL %q: %w", v, err)
		}
		cfg.Stats.RefreshInterval = d
	}
	if v := os.Getenv("DISPATCH_MANIFEST_DIR"); v != "" {
		cfg.Dispatch.ManifestDir = v
	}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_ENABLED %q: %w", v, err)
		}
		cfg.RateLimit.Enabled = b
	}
	if v := os.Getenv("PPROF_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PPROF_PORT %q: %w", v, err)
		}
		cfg.Pprof.Port = p
		cfg.Pprof.Enabled = true
	}
	cfg.Pprof.User = os.Getenv("PPROF_USER")
	cfg.Pprof.Pass = os.Getenv("PPROF_PASS")
	return nil
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("empty db path")
	}
	if cfg.Stats.RefreshInterval <= 0 {
		return fmt.Errorf("invalid stats refresh interval: %v", cfg.Stats.RefreshInterval)
	}
	if cfg.Pprof.Enabled && (cfg.Pprof.Port <= 0 || cfg.Pprof.Port > 65535) {
		return fmt.Errorf("invalid pprof port: %d", cfg.Pprof.Port)
	}
	return nil
}
