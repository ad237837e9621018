// Package config provides configuration management for the Akari DNS
// enumerator.
//
// The package uses a Provider interface to abstract configuration loading,
// with the primary implementation being filesystem-based configuration via
// YAML files.
//
// # Configuration Structure
//
// Configuration is structured as follows:
//
//	domains: example.com,example.org     # comma-separated target domains
//	record_types: A,AAAA,MX              # comma-separated record types
//	timeout: 5.0                         # per-query timeout in seconds
//	nameserver: 8.8.8.8                  # optional nameserver override
//	ipinfo_token: abc123                 # optional ipinfo.io API token
//	threads: 10                          # optional worker-pool size
//	qps: 0                               # optional query rate limit (0 = off)
//
// # Basic Usage
//
// Load configuration from a specific path:
//
//	provider := config.New("/etc/akari/config.yaml")
//	cfg, err := provider.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Validation
//
// The package performs validation of loaded configuration:
//   - At least one domain must be configured
//   - Timeout must be positive
//   - Thread count must be at least 1
//
// A config file is only read when the user names one; when present it
// overrides the domain, record-type, and timeout command-line flags.
//
// # Error Handling
//
// The package defines several error types:
//   - ErrInvalidConfig: Configuration validation failed
//   - ErrNoConfig: Configuration file not found
//
// Both are fatal usage errors: the process exits before any lookup runs.
//
// The package is designed to be extensible, allowing for additional
// configuration providers to be implemented (e.g., environment variables)
// by implementing the Provider interface.
package config
