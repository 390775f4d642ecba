// Package refresher keeps the dashboard state fresh: it runs refresh cycles
// on a fixed schedule, on demand and from Pub/Sub triggers.
package refresher

import (
	"os"
	"time"

	"github.com/cloudstatus/cloudstatus/internal/status"
)

// RefreshInterval is the fixed period between scheduled cycles.
const RefreshInterval = 300 * time.Second

// DefaultProviderTimeout bounds how long a single provider may take within a cycle.
const DefaultProviderTimeout = 10 * time.Second

// Config holds configuration for the refresher.
type Config struct {
	// Providers are the providers built each cycle.
	// Default: status.Providers()
	Providers []status.ProviderID

	// ProviderTimeout bounds each provider's fetch.
	// Default: 10 seconds
	ProviderTimeout time.Duration

	// Interval replaces RefreshInterval. Only tests set it.
	Interval time.Duration

	// Now replaces the wall clock. Only tests set it.
	Now func() time.Time
}

// DefaultConfig returns the default refresher configuration.
func DefaultConfig() Config {
	return Config{
		Providers:       status.Providers(),
		ProviderTimeout: DefaultProviderTimeout,
		Interval:        RefreshInterval,
		Now:             time.Now,
	}
}

// ConfigFromEnv returns DefaultConfig with STATUS_FEED_TIMEOUT applied.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("STATUS_FEED_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ProviderTimeout = d
		}
	}
	return cfg
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.Providers) == 0 {
		c.Providers = def.Providers
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = def.ProviderTimeout
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Now == nil {
		c.Now = def.Now
	}
	return c
}
