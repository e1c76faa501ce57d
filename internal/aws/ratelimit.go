package aws

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"

	"costdelta/internal/config"
	"costdelta/internal/logging"
)

const jitterPercent = 0.1

// RateLimiter implements rate limiting with exponential backoff
type RateLimiter struct {
	tokens       chan struct{}
	interval     time.Duration
	maxRetries   int
	baseDelay    time.Duration
	maxDelay     time.Duration
	mu           sync.RWMutex
	failureCount int
	lastFailure  time.Time
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewRateLimiter creates a new rate limiter with the specified rate and backoff settings.
// If cfg is nil, it uses the DefaultRateLimitConfig.
func NewRateLimiter(cfg *config.RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = &config.DefaultRateLimitConfig
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultRateLimitConfig.RequestsPerSecond
	}

	tokenCount := int(math.Ceil(rps))
	interval := time.Duration(float64(time.Second) / rps)

	rl := &RateLimiter{
		tokens:     make(chan struct{}, tokenCount),
		interval:   interval,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		stop:       make(chan struct{}),
	}

	// Initialize token bucket
	for i := 0; i < tokenCount; i++ {
		rl.tokens <- struct{}{}
	}

	go rl.replenish()

	return rl
}

// replenish refills the bucket at the configured rate until Stop is called
func (rl *RateLimiter) replenish() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			select {
			case rl.tokens <- struct{}{}:
			default:
				// Token bucket is full
			}
		}
	}
}

// Stop releases the replenishment goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// getCurrentBackoff calculates the current backoff duration based on failure count
func (rl *RateLimiter) getCurrentBackoff() time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	if rl.failureCount == 0 {
		return 0
	}

	// Reset backoff if enough time has passed since last failure
	if time.Since(rl.lastFailure) > time.Minute*5 {
		return 0
	}

	backoff := float64(rl.baseDelay) * math.Pow(2, float64(rl.failureCount-1))
	if backoff > float64(rl.maxDelay) {
		backoff = float64(rl.maxDelay)
	}
	return time.Duration(backoff)
}

// Wait waits for rate limit with exponential backoff
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if backoff := rl.getCurrentBackoff(); backoff > 0 {
		logging.Debug("Rate limiter applying backoff", map[string]interface{}{
			"backoff_ms": backoff.Milliseconds(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.tokens:
		return nil
	}
}

// OnSuccess records a successful API call and resets backoff
func (rl *RateLimiter) OnSuccess() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.failureCount > 0 {
		logging.Debug("Rate limiter resetting backoff after success", map[string]interface{}{
			"previous_failure_count": rl.failureCount,
			"last_failure":           rl.lastFailure.Format(time.RFC3339),
		})
		rl.failureCount = 0
		rl.lastFailure = time.Time{}
	}
}

// OnFailure records a failed API call and updates backoff parameters
func (rl *RateLimiter) OnFailure() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.failureCount++
	rl.lastFailure = time.Now()

	logging.Debug("Rate limiter recorded failure", map[string]interface{}{
		"failure_count": rl.failureCount,
	})
}

// Execute runs operation under the rate limit, retrying throttling and
// server errors with backoff up to the configured retry count.
func (rl *RateLimiter) Execute(ctx context.Context, apiName string, operation func() error) error {
	var err error
	for attempt := 0; attempt <= rl.maxRetries; attempt++ {
		if waitErr := rl.Wait(ctx); waitErr != nil {
			if err != nil {
				return fmt.Errorf("%s interrupted after %d attempts: %w", apiName, attempt, err)
			}
			return waitErr
		}

		err = operation()
		if err == nil {
			rl.OnSuccess()
			return nil
		}
		if !ShouldRetry(err) {
			return err
		}

		rl.OnFailure()
		logging.Debug("Rate limited, retrying operation", map[string]interface{}{
			"api":         apiName,
			"attempt":     attempt + 1,
			"max_retries": rl.maxRetries,
		})

		// backoff for the next attempt is applied by Wait, jitter spreads concurrent callers
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(rl.baseDelay)):
		}
	}

	return fmt.Errorf("max retries exceeded for %s: %w", apiName, err)
}

// jitter returns a random fraction of delay
func jitter(delay time.Duration) time.Duration {
	return time.Duration(float64(delay) * jitterPercent * rand.Float64())
}

// retryableCodes are AWS error codes worth retrying
var retryableCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"ThrottledException":                     true,
	"RequestLimitExceeded":                   true,
	"TooManyRequestsException":               true,
	"ProvisionedThroughputExceededException": true,
	"InternalErrorException":                 true,
	"ServiceUnavailable":                     true,
	"RequestError":                           true,
}

// ShouldRetry reports whether err is a throttling or transient AWS error
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() >= 500 {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) && retryableCodes[aerr.Code()] {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "throttling") ||
		strings.Contains(errStr, "rate exceeded") ||
		strings.Contains(errStr, "too many requests")
}
