package config

import (
	"fmt"
	"time"
)

type UsageBackend string

const (
	UsageBackendMongo UsageBackend = "mongo"
	UsageBackendRedis UsageBackend = "redis"
	UsageBackendKafka UsageBackend = "kafka"
	UsageBackendNone  UsageBackend = "none"
)

type PricingConfig struct {
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	UsageTimeout       time.Duration `yaml:"usage_timeout"`
	UsageBackend       UsageBackend  `yaml:"usage_backend"`
	UsageAsync         bool          `yaml:"usage_async"`
	UsageBuffer        int           `yaml:"usage_buffer"`
	UsageWorkers       int           `yaml:"usage_workers"`
	UsageFlushInterval time.Duration `yaml:"usage_flush_interval"`
	RouteCacheTTL      time.Duration `yaml:"route_cache_ttl"`
	Timezone           string        `yaml:"timezone"`
}

func loadPricingConfig(defaultTimezone string) *PricingConfig {
	return &PricingConfig{
		FetchTimeout:       getEnvAsDuration("PRICING_FETCH_TIMEOUT", 2*time.Second),
		UsageTimeout:       getEnvAsDuration("PRICING_USAGE_TIMEOUT", 3*time.Second),
		UsageBackend:       UsageBackend(getEnv("PRICING_USAGE_BACKEND", string(UsageBackendMongo))),
		UsageAsync:         getEnvAsBool("PRICING_USAGE_ASYNC", true),
		UsageBuffer:        getEnvAsInt("PRICING_USAGE_BUFFER", 1024),
		UsageWorkers:       getEnvAsInt("PRICING_USAGE_WORKERS", 4),
		UsageFlushInterval: getEnvAsDuration("PRICING_USAGE_FLUSH_INTERVAL", 10*time.Second),
		RouteCacheTTL:      getEnvAsDuration("PRICING_ROUTE_CACHE_TTL", 5*time.Minute),
		Timezone:           getEnv("PRICING_TIMEZONE", defaultTimezone),
	}
}

// Location loads the zone rule time windows are evaluated in.
func (p *PricingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_TIMEZONE %q: %w", p.Timezone, err)
	}
	return loc, nil
}

func (p *PricingConfig) validate() error {
	switch p.UsageBackend {
	case UsageBackendMongo, UsageBackendRedis, UsageBackendKafka, UsageBackendNone:
	default:
		return fmt.Errorf("unknown PRICING_USAGE_BACKEND %q", p.UsageBackend)
	}
	if p.UsageBuffer <= 0 {
		return fmt.Errorf("PRICING_USAGE_BUFFER must be positive, got %d", p.UsageBuffer)
	}
	if p.UsageWorkers <= 0 {
		return fmt.Errorf("PRICING_USAGE_WORKERS must be positive, got %d", p.UsageWorkers)
	}
	if p.UsageTimeout <= 0 {
		return fmt.Errorf("PRICING_USAGE_TIMEOUT must be positive, got %s", p.UsageTimeout)
	}
	if p.UsageBackend == UsageBackendRedis && p.UsageFlushInterval <= 0 {
		return fmt.Errorf("PRICING_USAGE_FLUSH_INTERVAL must be positive for the redis backend")
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	return nil
}
