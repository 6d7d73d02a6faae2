package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/oracle"
	"github.com/pithecene-io/keyspace/runtime"
)

// Config represents a keyspace.yaml configuration file.
// All values are optional and act as defaults for keyspace command flags.
// CLI flags always override config values.
type Config struct {
	Strategy   candidate.Strategy `yaml:"strategy"`
	Engine     EngineConfig       `yaml:"engine"`
	Oracle     OracleConfig       `yaml:"oracle"`
	Storage    StorageConfig      `yaml:"storage"`
	Report     ReportConfig       `yaml:"report"`
	Adapter    AdapterConfig      `yaml:"adapter"`
	Checkpoint CheckpointConfig   `yaml:"checkpoint"`
}

// EngineConfig holds scheduler tuning. Unset fields keep runtime defaults.
type EngineConfig struct {
	Concurrency         int      `yaml:"concurrency"`
	MaxRetries          *int     `yaml:"max_retries,omitempty"`
	BackoffBase         Duration `yaml:"backoff_base"`
	BackoffCap          Duration `yaml:"backoff_cap"`
	RateLimit           float64  `yaml:"rate_limit"`
	PerWorkerDelay      Duration `yaml:"per_worker_delay"`
	ProbeTimeout        Duration `yaml:"probe_timeout"`
	StaleBurstThreshold int      `yaml:"stale_burst_threshold"`
	StaleWindow         Duration `yaml:"stale_window"`
}

// OracleConfig configures the simulated oracle used by keyspace bench.
type OracleConfig struct {
	Target         string   `yaml:"target"`
	Latency        Duration `yaml:"latency"`
	Jitter         Duration `yaml:"jitter"`
	TransientRate  float64  `yaml:"transient_rate"`
	RequireSession bool     `yaml:"require_session"`
	SessionTTL     Duration `yaml:"session_ttl"`
	Seed           uint64   `yaml:"seed"`
}

// StorageConfig holds storage defaults from the config file.
type StorageConfig struct {
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// ReportConfig controls outcome reporting and storage flushing.
type ReportConfig struct {
	// Kinds limits stored outcome kinds (accepted, rejected, transient,
	// gave_up). Empty stores every kind.
	Kinds         []string `yaml:"kinds,omitempty"`
	FlushCount    int      `yaml:"flush_count"`
	FlushInterval Duration `yaml:"flush_interval"`
	ShowWinner    bool     `yaml:"show_winner"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// CheckpointConfig configures resume checkpoints.
type CheckpointConfig struct {
	Path     string   `yaml:"path"`
	Interval Duration `yaml:"interval"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// RuntimeConfig overlays the engine section on runtime.DefaultConfig.
// Zero values mean "not set" except for MaxRetries, which is a pointer so
// that max_retries: 0 disables retries.
func (e EngineConfig) RuntimeConfig() runtime.Config {
	cfg := runtime.DefaultConfig()
	if e.Concurrency != 0 {
		cfg.Concurrency = e.Concurrency
	}
	if e.MaxRetries != nil {
		cfg.MaxRetries = *e.MaxRetries
	}
	if e.BackoffBase.Duration != 0 {
		cfg.BackoffBase = e.BackoffBase.Duration
	}
	if e.BackoffCap.Duration != 0 {
		cfg.BackoffCap = e.BackoffCap.Duration
	}
	cfg.RateLimit = e.RateLimit
	cfg.PerWorkerDelay = e.PerWorkerDelay.Duration
	if e.ProbeTimeout.Duration != 0 {
		cfg.ProbeTimeout = e.ProbeTimeout.Duration
	}
	cfg.StaleBurstThreshold = e.StaleBurstThreshold
	if e.StaleWindow.Duration != 0 {
		cfg.StaleWindow = e.StaleWindow.Duration
	}
	return cfg
}

// SimulatedConfig maps the oracle section to oracle.SimulatedConfig.
func (o OracleConfig) SimulatedConfig() oracle.SimulatedConfig {
	return oracle.SimulatedConfig{
		Target:         o.Target,
		Latency:        o.Latency.Duration,
		Jitter:         o.Jitter.Duration,
		TransientRate:  o.TransientRate,
		RequireSession: o.RequireSession,
		Seed:           o.Seed,
	}
}
