package extract

import (
	"context"
	"log"
	"time"

	"github.com/evanzqian-eng/Chess-Genie/internal/card"
	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
)

// RetryPolicy bounds retries of rate-limited extraction calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy makes 3 attempts, waiting 3s then 6s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 3 * time.Second}
}

// Delay returns the wait after failed attempt i (0-based): BaseDelay * 2^i.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Gateway retries rate-limited calls to the wrapped Extractor with exponential backoff.
// Any other failure is returned at once. When attempts run out the last error is returned unchanged.
type Gateway struct {
	next   Extractor
	policy RetryPolicy
	sleep  SleepFunc
	logf   func(format string, args ...any)
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(fn SleepFunc) GatewayOption {
	return func(g *Gateway) { g.sleep = fn }
}

// WithLogf replaces the retry logger.
func WithLogf(fn func(format string, args ...any)) GatewayOption {
	return func(g *Gateway) { g.logf = fn }
}

// NewGateway wraps next with policy. A non-positive MaxAttempts means a single attempt.
func NewGateway(next Extractor, policy RetryPolicy, opts ...GatewayOption) *Gateway {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	g := &Gateway{
		next:   next,
		policy: policy,
		sleep:  sleepContext,
		logf:   log.Printf,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the retry policy in effect.
func (g *Gateway) Policy() RetryPolicy { return g.policy }

// Extract implements Extractor.
func (g *Gateway) Extract(ctx context.Context, pgn string) ([]card.Flashcard, error) {
	var lastErr error
	for attempt := 0; attempt < g.policy.MaxAttempts; attempt++ {
		cards, err := g.next.Extract(ctx, pgn)
		if err == nil {
			return cards, nil
		}
		lastErr = err

		if !errors.IsRateLimit(err) || attempt == g.policy.MaxAttempts-1 {
			return nil, err
		}

		delay := g.policy.Delay(attempt)
		g.logf("extract: rate limit hit, retrying in %s (attempt %d/%d)", delay, attempt+1, g.policy.MaxAttempts)
		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
