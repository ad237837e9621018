// Package config provides configuration loading and validation for Akari.
// It handles reading lookup settings from a YAML file, providing defaults,
// and ensuring all required settings are properly set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kuraiyume/Akari/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultTimeout is the default per-query timeout in seconds.
	DefaultTimeout = 5.0
	// DefaultWorkers is the default worker-pool size for parallel lookups.
	DefaultWorkers = 10
)

// Config holds the lookup settings for one run.
//
// Domains and RecordTypes are comma-separated in the file; use the
// DomainList and TypeList accessors to get them split and trimmed.
type Config struct {
	Domains     string  `yaml:"domains"`
	RecordTypes string  `yaml:"record_types"`
	Timeout     float64 `yaml:"timeout"` // seconds
	Nameserver  string  `yaml:"nameserver,omitempty"`
	IPInfoToken string  `yaml:"ipinfo_token,omitempty"`
	Workers     int     `yaml:"threads,omitempty"`
	QPS         int     `yaml:"qps,omitempty"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadFS
	path string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// New creates a configuration provider for the given path using the OS
// filesystem. Unlike most config loaders there is no default location:
// the file is only consulted when the user passes one explicitly, so a
// missing file is an error rather than a fallback to defaults.
func New(path string) Provider {
	return NewWithFS(filesys.OS(), path)
}

// NewWithFS creates a provider with a specific filesystem implementation.
func NewWithFS(fs filesys.ReadFS, path string) Provider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Default returns a configuration with preset values. Domains and
// RecordTypes are left empty; the caller decides what an empty type
// list means (the full default record-type set).
func Default() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Workers: DefaultWorkers,
	}
}

// Load loads the configuration from the provider's path.
func (p *FSProvider) Load() (*Config, error) {
	cfg, err := p.loadAndParse()
	if err != nil {
		return nil, err
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
func (c *Config) Validate() error {
	if len(c.DomainList()) == 0 {
		return errors.New("domains cannot be empty")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Workers < 1 {
		return errors.New("threads must be at least 1")
	}
	if c.QPS < 0 {
		return errors.New("qps cannot be negative")
	}
	return nil
}

// DomainList returns the configured domains, split and trimmed.
func (c *Config) DomainList() []string {
	return splitList(c.Domains)
}

// TypeList returns the configured record types, upper-cased.
// An empty slice means the caller should use the default set.
func (c *Config) TypeList() []string {
	types := splitList(c.RecordTypes)
	for i, t := range types {
		types[i] = strings.ToUpper(t)
	}
	return types
}

// TimeoutDuration converts the float-seconds timeout to a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout * float64(time.Second))
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, p.path)
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return &cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
