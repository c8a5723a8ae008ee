package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/petitecurve/storefront/internal/domain"
)

// fakeRecorder counts what the pipeline reports
type fakeRecorder struct {
	calls     map[string]int
	retries   int
	exhausted int
	scanned   int
	accepted  map[string]int
	runs      int
	lastErr   error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{calls: map[string]int{}, accepted: map[string]int{}}
}

func (r *fakeRecorder) APICall(outcome string)              { r.calls[outcome]++ }
func (r *fakeRecorder) ThrottleRetry()                      { r.retries++ }
func (r *fakeRecorder) BudgetExhausted()                    { r.exhausted++ }
func (r *fakeRecorder) ItemsScanned(n int)                  { r.scanned += n }
func (r *fakeRecorder) ProductsAccepted(tier string, n int) { r.accepted[tier] += n }
func (r *fakeRecorder) RunCompleted(_ time.Duration, _ int, err error) {
	r.runs++
	r.lastErr = err
}

// newTestCaller returns a caller that never really sleeps and records the
// waits it was asked for
func newTestCaller(policy RetryPolicy, rec domain.MetricsRecorder) (*Caller, *[]time.Duration) {
	c := NewCaller(policy, nil, rec)
	waits := []time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	c.jitter = func(time.Duration) time.Duration { return 0 }
	return c, &waits
}

var throttled = &domain.APIError{Kind: domain.APIErrorThrottled, StatusCode: 429, Code: "TooManyRequests"}

func TestBudget(t *testing.T) {
	b := NewBudget(2)
	if b.Exhausted() {
		t.Fatal("new budget should not be exhausted")
	}
	b.consume()
	if b.Used() != 1 || b.Remaining() != 1 {
		t.Errorf("Used/Remaining = %d/%d, want 1/1", b.Used(), b.Remaining())
	}
	b.consume()
	if !b.Exhausted() {
		t.Error("budget should be exhausted after two calls")
	}
	if b.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", b.Remaining())
	}
}

func TestCallerCall(t *testing.T) {
	ctx := context.Background()
	policy := RetryPolicy{BaseDelay: time.Second, MaxAttempts: 6, Multiplier: 2}

	t.Run("success consumes one unit of budget", func(t *testing.T) {
		rec := newFakeRecorder()
		c, waits := newTestCaller(policy, rec)
		budget := NewBudget(3)

		err := c.Call(ctx, budget, func(context.Context) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if budget.Used() != 1 {
			t.Errorf("Used = %d, want 1", budget.Used())
		}
		if len(*waits) != 0 {
			t.Errorf("waits = %v, want none", *waits)
		}
		if rec.calls["ok"] != 1 {
			t.Errorf("ok calls = %d, want 1", rec.calls["ok"])
		}
	})

	t.Run("throttled calls back off with doubling delay", func(t *testing.T) {
		rec := newFakeRecorder()
		c, waits := newTestCaller(policy, rec)
		budget := NewBudget(10)

		attempts := 0
		err := c.Call(ctx, budget, func(context.Context) error {
			attempts++
			if attempts <= 3 {
				return throttled
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 4 {
			t.Errorf("attempts = %d, want 4", attempts)
		}
		want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
		if fmt.Sprint(*waits) != fmt.Sprint(want) {
			t.Errorf("waits = %v, want %v", *waits, want)
		}
		if budget.Used() != 1 {
			t.Errorf("Used = %d, want 1", budget.Used())
		}
		if rec.retries != 3 || rec.calls["throttled"] != 3 {
			t.Errorf("retries = %d throttled = %d, want 3/3", rec.retries, rec.calls["throttled"])
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		c, waits := newTestCaller(policy, nil)
		budget := NewBudget(10)

		attempts := 0
		err := c.Call(ctx, budget, func(context.Context) error {
			attempts++
			return throttled
		})
		if !errors.Is(err, domain.ErrThrottled) {
			t.Errorf("error = %v, want ErrThrottled", err)
		}
		if attempts != 6 {
			t.Errorf("attempts = %d, want 6", attempts)
		}
		if len(*waits) != 5 {
			t.Errorf("waits = %d, want 5", len(*waits))
		}
		if budget.Used() != 0 {
			t.Errorf("Used = %d, want 0", budget.Used())
		}
	})

	t.Run("non-throttle error returns immediately", func(t *testing.T) {
		rec := newFakeRecorder()
		c, waits := newTestCaller(policy, rec)
		budget := NewBudget(10)
		authErr := &domain.APIError{Kind: domain.APIErrorAuth, StatusCode: 401}

		attempts := 0
		err := c.Call(ctx, budget, func(context.Context) error {
			attempts++
			return authErr
		})
		if !errors.Is(err, authErr) {
			t.Errorf("error = %v, want auth error", err)
		}
		if attempts != 1 || len(*waits) != 0 {
			t.Errorf("attempts = %d waits = %d, want 1/0", attempts, len(*waits))
		}
		if rec.calls["error"] != 1 {
			t.Errorf("error calls = %d, want 1", rec.calls["error"])
		}
	})

	t.Run("exhausted budget fails without calling", func(t *testing.T) {
		rec := newFakeRecorder()
		c, _ := newTestCaller(policy, rec)
		budget := NewBudget(1)
		budget.consume()

		called := false
		err := c.Call(ctx, budget, func(context.Context) error {
			called = true
			return nil
		})
		if !errors.Is(err, domain.ErrBudgetExhausted) {
			t.Errorf("error = %v, want ErrBudgetExhausted", err)
		}
		if called {
			t.Error("op should not be called")
		}
		if rec.exhausted != 1 {
			t.Errorf("exhausted = %d, want 1", rec.exhausted)
		}
	})

	t.Run("cancelled context stops backoff", func(t *testing.T) {
		c, _ := newTestCaller(policy, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := c.Call(cctx, NewBudget(5), func(context.Context) error { return throttled })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("max attempts below one is treated as one", func(t *testing.T) {
		c, waits := newTestCaller(RetryPolicy{BaseDelay: time.Second}, nil)

		attempts := 0
		_ = c.Call(ctx, NewBudget(5), func(context.Context) error {
			attempts++
			return throttled
		})
		if attempts != 1 || len(*waits) != 0 {
			t.Errorf("attempts = %d waits = %d, want 1/0", attempts, len(*waits))
		}
	})
}

func TestCallerThrottleProperty(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Millisecond, MaxAttempts: 6, Multiplier: 2}

	for k := 0; k <= 7; k++ {
		t.Run(fmt.Sprintf("%d throttles", k), func(t *testing.T) {
			c, _ := newTestCaller(policy, nil)
			attempts := 0
			err := c.Call(context.Background(), NewBudget(10), func(context.Context) error {
				attempts++
				if attempts <= k {
					return throttled
				}
				return nil
			})

			if wantOK := k < policy.MaxAttempts; (err == nil) != wantOK {
				t.Errorf("err = %v, want success %v", err, wantOK)
			}
		})
	}
}

func TestCallerPause(t *testing.T) {
	c, waits := newTestCaller(RetryPolicy{BaseDelay: 6 * time.Second}, nil)
	c.jitter = func(max time.Duration) time.Duration { return 500 * time.Millisecond }

	if err := c.Pause(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*waits) != 1 || (*waits)[0] != 6500*time.Millisecond {
		t.Errorf("waits = %v, want [6.5s]", *waits)
	}
}

func TestIsThrottle(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttled api error", throttled, true},
		{"wrapped throttled", fmt.Errorf("page 2: %w", throttled), true},
		{"sentinel", domain.ErrThrottled, true},
		{"server error", &domain.APIError{Kind: domain.APIErrorServer, Message: "rate exceeded upstream"}, false},
		{"limiter transport error", &domain.APIError{Kind: domain.APIErrorTransport, Message: "rate limiter wait"}, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"opaque throttle text", errors.New("Request was Throttled"), true},
		{"opaque too many requests", errors.New("429 Too Many Requests"), true},
		{"opaque limit", errors.New("quota limit hit"), true},
		{"unrelated", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsThrottle(tt.err); got != tt.want {
				t.Errorf("IsThrottle(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRandomJitter(t *testing.T) {
	if got := randomJitter(0); got != 0 {
		t.Errorf("randomJitter(0) = %v, want 0", got)
	}
	for i := 0; i < 50; i++ {
		if got := randomJitter(time.Second); got < 0 || got >= time.Second {
			t.Fatalf("randomJitter(1s) = %v, out of range", got)
		}
	}
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if err := sleepContext(context.Background(), 0); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
}
