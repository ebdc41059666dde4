// Package config carries the construction-time settings of the catalog
// client.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alanwang67/catalog_client/proxy"
)

// Config holds the client settings. Values are fixed at construction; there
// are no ambient globals.
type Config struct {
	// HeartbeatInterval is the period of the liveness heartbeat and the
	// basis for its deadline.
	HeartbeatInterval time.Duration

	// AdminTimeout is the fallback timeout for administrative calls issued
	// without an explicit deadline.
	AdminTimeout time.Duration

	// UseHostname selects hostname-based endpoint construction, pinning
	// the resolved address for the lifetime of the binding.
	UseHostname bool
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		HeartbeatInterval: 10 * time.Second,
		AdminTimeout:      120 * time.Second,
	}
}

// Validate checks that the configured durations are usable.
func (c Config) Validate() error {
	if c.HeartbeatInterval <= proxy.HeartbeatDeadlineMargin {
		return fmt.Errorf("heartbeat interval %s must exceed the deadline margin %s",
			c.HeartbeatInterval, proxy.HeartbeatDeadlineMargin)
	}
	if c.AdminTimeout <= 0 {
		return fmt.Errorf("admin timeout %s must be positive", c.AdminTimeout)
	}
	return nil
}

type fileConfig struct {
	HeartbeatIntervalMS int64 `toml:"heartbeat_interval_ms"`
	AdminTimeoutSec     int64 `toml:"admin_timeout_sec"`
	UseNodeHostname     bool  `toml:"use_node_hostname"`
}

// Load reads a TOML config file, overlaying any keys it defines onto the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("heartbeat_interval_ms") {
		cfg.HeartbeatInterval = time.Duration(raw.HeartbeatIntervalMS) * time.Millisecond
	}
	if meta.IsDefined("admin_timeout_sec") {
		cfg.AdminTimeout = time.Duration(raw.AdminTimeoutSec) * time.Second
	}
	if meta.IsDefined("use_node_hostname") {
		cfg.UseHostname = raw.UseNodeHostname
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
