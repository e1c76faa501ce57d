package config

import (
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// RequestsPerSecond is the number of requests allowed per second
	RequestsPerSecond float64
	// MaxRetries is the maximum number of retries before giving up
	MaxRetries int
	// BaseDelay is the initial delay duration for backoff
	BaseDelay time.Duration
	// MaxDelay is the maximum delay duration for backoff
	MaxDelay time.Duration
}

var (
	// DefaultRateLimitConfig provides default values for rate limiting.
	// The Price List API allows far fewer calls than most services.
	DefaultRateLimitConfig = RateLimitConfig{
		RequestsPerSecond: 5.0,
		MaxRetries:        3,
		BaseDelay:         500 * time.Millisecond,
		MaxDelay:          30 * time.Second,
	}
)

// PricingRateLimitConfig builds the rate limit settings for Price List calls from viper
func PricingRateLimitConfig() RateLimitConfig {
	cfg := DefaultRateLimitConfig
	if rps := viper.GetFloat64("pricing.requests_per_second"); rps > 0 {
		cfg.RequestsPerSecond = rps
	}
	if viper.IsSet("pricing.max_retries") {
		if retries := viper.GetInt("pricing.max_retries"); retries >= 0 {
			cfg.MaxRetries = retries
		}
	}
	return cfg
}
