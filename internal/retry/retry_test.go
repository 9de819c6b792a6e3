package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), Always, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	wantErr := errors.New("still down")

	calls := 0
	err := Do(context.Background(), cfg, Always, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	cfg := Config{MaxAttempts: 5, BaseDelay: time.Millisecond}
	fatal := errors.New("bad password")

	calls := 0
	err := Do(context.Background(), cfg, func(err error) bool { return false }, func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_NotifiesBetweenAttempts(t *testing.T) {
	var attempts []int
	cfg := Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		OnRetry:     func(attempt int, delay time.Duration) { attempts = append(attempts, attempt) },
	}

	Do(context.Background(), cfg, Always, func() error { return errors.New("down") })

	// Notified after attempts 1 and 2; the final failure gets no callback.
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected notifications for attempts [1 2], got %v", attempts)
	}
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, DefaultConfig(), Always, func() error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
	if IsTransient(context.Canceled) {
		t.Error("cancellation should not be transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be transient")
	}
}
