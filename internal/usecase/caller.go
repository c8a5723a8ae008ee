package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petitecurve/storefront/internal/domain"
)

// Budget caps the successful API calls one pipeline run may make
type Budget struct {
	max  int
	used int
}

// NewBudget creates a budget allowing max successful calls
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Exhausted reports whether no calls remain
func (b *Budget) Exhausted() bool { return b.used >= b.max }

// Used returns the number of calls consumed
func (b *Budget) Used() int { return b.used }

// Remaining returns the number of calls left
func (b *Budget) Remaining() int {
	if b.used >= b.max {
		return 0
	}
	return b.max - b.used
}

func (b *Budget) consume() { b.used++ }

// RetryPolicy controls pacing and backoff of API calls
type RetryPolicy struct {
	BaseDelay   time.Duration // polite delay and first backoff step
	Jitter      time.Duration // upper bound of the random extra wait
	MaxAttempts int
	Multiplier  float64
}

// Caller wraps API operations with budget checks and throttle backoff
type Caller struct {
	policy   RetryPolicy
	logger   *zap.Logger
	recorder domain.MetricsRecorder
	sleep    func(ctx context.Context, d time.Duration) error
	jitter   func(max time.Duration) time.Duration
}

// NewCaller creates a Caller. A MaxAttempts below one is treated as one.
func NewCaller(policy RetryPolicy, logger *zap.Logger, recorder domain.MetricsRecorder) *Caller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Caller{
		policy:   policy,
		logger:   logger,
		recorder: recorder,
		sleep:    sleepContext,
		jitter:   randomJitter,
	}
}

// Call runs op, retrying throttled failures with exponential backoff.
// It fails fast with ErrBudgetExhausted when the budget is spent and
// consumes one unit of budget when op succeeds.
func (c *Caller) Call(ctx context.Context, budget *Budget, op func(ctx context.Context) error) error {
	if budget.Exhausted() {
		c.recorder.BudgetExhausted()
		return domain.ErrBudgetExhausted
	}

	delay := c.policy.BaseDelay
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			budget.consume()
			c.recorder.APICall("ok")
			return nil
		}

		if !IsThrottle(err) {
			c.recorder.APICall("error")
			return err
		}
		c.recorder.APICall("throttled")

		if attempt >= c.policy.MaxAttempts {
			return err
		}

		wait := delay + c.jitter(c.policy.Jitter)
		c.logger.Info("throttled, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Duration("wait", wait))
		c.recorder.ThrottleRetry()

		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * c.policy.Multiplier)
	}
}

// Pause applies the polite delay used between keywords
func (c *Caller) Pause(ctx context.Context) error {
	return c.sleep(ctx, c.policy.BaseDelay+c.jitter(c.policy.Jitter))
}

// throttleHints are matched against messages of errors that carry no kind
var throttleHints = []string{"throttle", "limit", "too many requests", "rate"}

// IsThrottle reports whether err means the API wants us to slow down.
// Structured errors decide by kind; opaque ones fall back to message text.
func IsThrottle(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrThrottled) {
		return true
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range throttleHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

type nopRecorder struct{}

func (nopRecorder) APICall(string)                         {}
func (nopRecorder) ThrottleRetry()                         {}
func (nopRecorder) BudgetExhausted()                       {}
func (nopRecorder) ItemsScanned(int)                       {}
func (nopRecorder) ProductsAccepted(string, int)           {}
func (nopRecorder) RunCompleted(time.Duration, int, error) {}
