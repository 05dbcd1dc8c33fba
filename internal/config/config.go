// Package config loads the ppool command configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pp "github.com/azargarov/prioritypool"
	"github.com/azargarov/prioritypool/internal/primality"
)

// FileConfig is the layout of the configuration file.
type FileConfig struct {
	Pool            PoolConfig    `yaml:"pool" json:"pool"`
	Metrics         MetricsConfig `yaml:"metrics" json:"metrics"`
	Jobs            []JobConfig   `yaml:"jobs" json:"jobs"`
	ShutdownTimeout string        `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type PoolConfig struct {
	Workers    int         `yaml:"workers" json:"workers"`
	PinWorkers bool        `yaml:"pin_workers" json:"pin_workers"`
	Retry      RetryConfig `yaml:"retry" json:"retry"`
}

type RetryConfig struct {
	Attempts int    `yaml:"attempts" json:"attempts"`
	Initial  string `yaml:"initial" json:"initial"`
	Max      string `yaml:"max" json:"max"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// JobConfig describes one batch of primality checks over [From, To].
// Every number is one task submitted at Priority.
type JobConfig struct {
	Name     string `yaml:"name" json:"name"`
	Priority int    `yaml:"priority" json:"priority"`
	Method   string `yaml:"method" json:"method"`
	From     uint64 `yaml:"from" json:"from"`
	To       uint64 `yaml:"to" json:"to"`
}

// Job is a validated JobConfig.
type Job struct {
	Name     string
	Priority int
	Method   primality.Method
	From, To uint64
}

// Config is the resolved configuration used by the command.
type Config struct {
	Pool            pp.Options
	MetricsAddr     string
	Namespace       string
	Jobs            []Job
	ShutdownTimeout time.Duration
}

const (
	defaultShutdownTimeout = 10 * time.Second
	maxJobSize             = 1 << 20
)

// Default returns the configuration used without a file: one small batch
// of each method.
func Default() Config {
	return Config{
		Jobs: []Job{
			{Name: "small", Priority: pp.PriorityHigh, Method: primality.TrialDivision, From: 1, To: 10_000},
			{Name: "large", Priority: pp.DefaultPriority, Method: primality.MillerRabin, From: 1_000_000_000, To: 1_000_010_000},
		},
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// LoadFile reads a YAML (.yaml, .yml) or JSON (.json) configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	return &cfg, nil
}

// Validate checks the file for values that cannot be resolved.
func (f *FileConfig) Validate() error {
	if f.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must be non-negative")
	}
	if f.Pool.Retry.Attempts < 0 {
		return fmt.Errorf("pool.retry.attempts must be non-negative")
	}
	for i, j := range f.Jobs {
		if j.Name == "" {
			return fmt.Errorf("jobs[%d]: name is required", i)
		}
		if j.Method != "" && !primality.Method(j.Method).Valid() {
			return fmt.Errorf("jobs[%d] %s: unknown method %q", i, j.Name, j.Method)
		}
		if j.To < j.From {
			return fmt.Errorf("jobs[%d] %s: to must not be below from", i, j.Name)
		}
		if j.To-j.From >= maxJobSize {
			return fmt.Errorf("jobs[%d] %s: range larger than %d numbers", i, j.Name, maxJobSize)
		}
	}
	return nil
}

// ToConfig resolves the file on top of Default. Jobs in the file replace
// the default jobs.
func (f *FileConfig) ToConfig() (Config, error) {
	if err := f.Validate(); err != nil {
		return Config{}, err
	}
	cfg := Default()

	cfg.Pool.Workers = f.Pool.Workers
	cfg.Pool.PinWorkers = f.Pool.PinWorkers
	cfg.Pool.Retry.Attempts = f.Pool.Retry.Attempts

	var err error
	if cfg.Pool.Retry.Initial, err = parseDuration(f.Pool.Retry.Initial, "pool.retry.initial"); err != nil {
		return cfg, err
	}
	if cfg.Pool.Retry.Max, err = parseDuration(f.Pool.Retry.Max, "pool.retry.max"); err != nil {
		return cfg, err
	}
	if f.ShutdownTimeout != "" {
		if cfg.ShutdownTimeout, err = parseDuration(f.ShutdownTimeout, "shutdown_timeout"); err != nil {
			return cfg, err
		}
	}

	cfg.MetricsAddr = f.Metrics.Addr
	cfg.Namespace = f.Metrics.Namespace

	if len(f.Jobs) > 0 {
		cfg.Jobs = cfg.Jobs[:0:0]
		for _, j := range f.Jobs {
			m := primality.Method(j.Method)
			if m == "" {
				m = primality.MillerRabin
			}
			cfg.Jobs = append(cfg.Jobs, Job{
				Name:     j.Name,
				Priority: j.Priority,
				Method:   m,
				From:     j.From,
				To:       j.To,
			})
		}
	}
	return cfg, nil
}

func parseDuration(s, field string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative", field)
	}
	return d, nil
}
