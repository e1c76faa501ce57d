package aws

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costdelta/internal/config"
)

func testLimiter(t *testing.T, retries int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(&config.RateLimitConfig{
		RequestsPerSecond: 1000,
		MaxRetries:        retries,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttling code", awserr.New("ThrottlingException", "slow down", nil), true},
		{"server error", awserr.NewRequestFailure(awserr.New("InternalFailure", "boom", nil), 503, "req"), true},
		{"client error", awserr.NewRequestFailure(awserr.New("InvalidParameterException", "bad", nil), 400, "req"), false},
		{"wrapped throttling", fmt.Errorf("get products: %w", awserr.New("Throttling", "Rate exceeded", nil)), true},
		{"plain message", errors.New("Too Many Requests"), true},
		{"context", context.DeadlineExceeded, false},
		{"other", errors.New("access denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}

func TestExecuteRetriesThrottling(t *testing.T) {
	rl := testLimiter(t, 3)

	calls := 0
	err := rl.Execute(context.Background(), "GetProducts", func() error {
		calls++
		if calls < 3 {
			return awserr.New("ThrottlingException", "Rate exceeded", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Zero(t, rl.getCurrentBackoff())
}

func TestExecuteStopsOnPermanentError(t *testing.T) {
	rl := testLimiter(t, 3)

	calls := 0
	permanent := awserr.New("AccessDeniedException", "no", nil)
	err := rl.Execute(context.Background(), "GetProducts", func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestExecuteGivesUp(t *testing.T) {
	rl := testLimiter(t, 2)

	calls := 0
	err := rl.Execute(context.Background(), "GetProducts", func() error {
		calls++
		return awserr.New("Throttling", "Rate exceeded", nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, 3, calls)
}

func TestWaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{RequestsPerSecond: 1, BaseDelay: time.Second, MaxDelay: time.Second})
	t.Cleanup(rl.Stop)

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	rl := testLimiter(t, 0)

	rl.OnFailure()
	assert.Equal(t, time.Millisecond, rl.getCurrentBackoff())
	rl.OnFailure()
	assert.Equal(t, 2*time.Millisecond, rl.getCurrentBackoff())
	for i := 0; i < 10; i++ {
		rl.OnFailure()
	}
	assert.Equal(t, 5*time.Millisecond, rl.getCurrentBackoff())

	rl.OnSuccess()
	assert.Zero(t, rl.getCurrentBackoff())
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(nil)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
