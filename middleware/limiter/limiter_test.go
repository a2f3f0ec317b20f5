package limiter

import (
	"errors"
	"testing"
	"time"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
)

func pass(c *middleware.Context) error { return nil }

func newClocked(max int, window time.Duration) (*RateLimiter, *time.Time) {
	l := NewRateLimiter(max, window)
	now := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter, _ := newClocked(2, time.Minute)
		ctx := &middleware.Context{SessionID: "a"}

		for i := 0; i < 2; i++ {
			if err := limiter.Execute(ctx, pass); err != nil {
				t.Errorf("request %d failed: %v", i, err)
			}
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter, _ := newClocked(1, time.Minute)
		ctx := &middleware.Context{SessionID: "a"}

		limiter.Execute(ctx, pass)
		executed := false
		err := limiter.Execute(ctx, func(c *middleware.Context) error {
			executed = true
			return nil
		})
		if !errors.Is(err, lderrors.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
		if executed {
			t.Error("handler ran past the limit")
		}
	})

	t.Run("sessions are limited independently", func(t *testing.T) {
		limiter, _ := newClocked(1, time.Minute)
		if err := limiter.Execute(&middleware.Context{SessionID: "a"}, pass); err != nil {
			t.Fatal(err)
		}
		if err := limiter.Execute(&middleware.Context{SessionID: "b"}, pass); err != nil {
			t.Errorf("session b limited by session a: %v", err)
		}
	})

	t.Run("window slides", func(t *testing.T) {
		limiter, now := newClocked(2, time.Minute)
		ctx := &middleware.Context{SessionID: "a"}

		limiter.Execute(ctx, pass)
		*now = now.Add(40 * time.Second)
		limiter.Execute(ctx, pass)
		if err := limiter.Execute(ctx, pass); err == nil {
			t.Fatal("third request inside the window should fail")
		}

		*now = now.Add(21 * time.Second)
		if got := limiter.GetCounter("a"); got != 1 {
			t.Errorf("counter after first hit expired = %d, want 1", got)
		}
		if err := limiter.Execute(ctx, pass); err != nil {
			t.Errorf("request after slide failed: %v", err)
		}
	})

	t.Run("can reset session", func(t *testing.T) {
		limiter, _ := newClocked(1, time.Minute)
		ctx := &middleware.Context{SessionID: "a"}

		limiter.Execute(ctx, pass)
		limiter.Reset("a")
		if err := limiter.Execute(ctx, pass); err != nil {
			t.Errorf("request after reset failed: %v", err)
		}
	})

	t.Run("zero limit disables", func(t *testing.T) {
		limiter, _ := newClocked(0, time.Minute)
		for i := 0; i < 100; i++ {
			if err := limiter.Execute(&middleware.Context{SessionID: "a"}, pass); err != nil {
				t.Fatalf("request %d: %v", i, err)
			}
		}
	})
}
