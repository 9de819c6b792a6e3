// Package retry provides bounded retries with exponential backoff and
// jitter. It backs the readiness poll after a world start and the
// manifest/artifact fetches in the updater; start/stop semantics
// themselves are never retried.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

// Predicate decides whether an error is worth another attempt.
type Predicate func(error) bool

// Config controls retry behavior.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// OnRetry, if set, is called before each sleep with the attempt
	// number that just failed and the delay about to be taken. Used
	// for progress reporting during readiness polling.
	OnRetry func(attempt int, delay time.Duration)
}

// DefaultConfig suits short network fetches.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, shouldRetry
// declines, or ctx is done. The last error is returned. A nil
// shouldRetry retries transient network errors only.
func Do(ctx context.Context, config Config, shouldRetry Predicate, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var err error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}
		if attempt == config.MaxAttempts || !shouldRetry(err) {
			return err
		}

		delay := backoffDelay(config.BaseDelay, config.MaxDelay, attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt, delay)
		}
		if delay > 0 && !sleep(ctx, delay) {
			return ctx.Err()
		}
	}

	return err
}

// Always retries every error. Used where the failure mode is known to
// be "not up yet", such as polling an RCON endpoint after start.
func Always(error) bool { return true }

// IsTransient reports whether an error looks like a passing network
// condition.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// backoffDelay doubles the base per attempt, caps it at max, and picks
// a uniform value below the cap so concurrent pollers spread out.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	delay := base << (attempt - 1)
	if max > 0 && delay > max {
		delay = max
	}

	jitterMax := int64(delay)
	if jitterMax <= 0 {
		return 0
	}
	return time.Duration(delay/2 + time.Duration(rand.Int63n(jitterMax/2+1)))
}

func sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
