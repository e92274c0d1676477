package resilience

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/metrics"
)

// RetryPolicy controls how many times an operation is attempted and how long
// to wait between attempts. A policy is a value; callers copy it per call.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt, so an
	// operation runs at most MaxRetries+1 times. Default: 3.
	MaxRetries int

	// InitialDelay is the wait before the first retry. Default: 1s.
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts. Default: 30s.
	MaxDelay time.Duration

	// BackoffMultiplier scales the delay after each retry. Default: 2.0.
	BackoffMultiplier float64

	// RetryableStatusCodes lists response statuses that are retried even
	// though the request itself succeeded.
	RetryableStatusCodes []int

	// OnRetry is called before each backoff sleep with the 1-based retry
	// number, the delay about to be slept and the reason for the retry.
	OnRetry func(retry int, delay time.Duration, reason error)
}

// DefaultRetryPolicy returns the policy used for provider API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatusCodes: []int{
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// Validate reports whether the policy is usable.
func (p RetryPolicy) Validate() error {
	switch {
	case p.MaxRetries < 0:
		return eris.Errorf("resilience: max retries must be >= 0, got %d", p.MaxRetries)
	case p.InitialDelay < 0:
		return eris.Errorf("resilience: initial delay must be >= 0, got %s", p.InitialDelay)
	case p.MaxDelay < p.InitialDelay:
		return eris.Errorf("resilience: max delay %s is below initial delay %s", p.MaxDelay, p.InitialDelay)
	case p.BackoffMultiplier < 1:
		return eris.Errorf("resilience: backoff multiplier must be >= 1, got %g", p.BackoffMultiplier)
	}
	return nil
}

// Retryable reports whether status is in the policy's retryable set.
func (p RetryPolicy) Retryable(status int) bool {
	return slices.Contains(p.RetryableStatusCodes, status)
}

// nextDelay advances the backoff: min(delay*multiplier, max).
func (p RetryPolicy) nextDelay(delay time.Duration) time.Duration {
	next := time.Duration(float64(delay) * p.BackoffMultiplier)
	if next > p.MaxDelay || next < delay {
		next = p.MaxDelay
	}
	return next
}

// Response is the part of an HTTP exchange the retry loop needs to judge an
// attempt. Body is fully read so the response survives retries.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Call runs op until it returns a response whose status is not retryable,
// or until the policy's attempts are spent.
//
// The last response is returned when any attempt produced one, even if its
// status is retryable, so callers can log the provider's body. When every
// attempt failed with an error the result is a *RetryError. Cancelling ctx
// aborts a pending backoff sleep immediately and no further attempt runs.
func Call(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (*Response, error)) (*Response, error) {
	var (
		lastResp *Response
		lastErr  error
		delay    = policy.InitialDelay
		attempts = policy.MaxRetries + 1
	)

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}

		metrics.RetryAttempts.WithLabelValues("call").Inc()
		resp, err := op(ctx)
		var reason error
		switch {
		case err != nil:
			lastErr = err
			reason = err
		case resp != nil && policy.Retryable(resp.StatusCode):
			lastResp = resp
			reason = &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		default:
			return resp, nil
		}

		if attempt == attempts-1 {
			break
		}

		if err := sleep(ctx, policy, attempt+1, delay, reason); err != nil {
			return nil, err
		}
		delay = policy.nextDelay(delay)
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, &RetryError{Attempts: attempts, Last: lastErr}
}

// Do runs op with the same attempt budget and backoff as Call, for clients
// (SDKs) that report failures as errors rather than responses. Errors that are
// neither transient nor carry a retryable status are returned immediately.
func Do[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero     T
		lastErr  error
		delay    = policy.InitialDelay
		attempts = policy.MaxRetries + 1
	)

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, context.Cause(ctx)
		}

		metrics.RetryAttempts.WithLabelValues("do").Inc()
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, context.Cause(ctx)
		}
		if !policy.shouldRetry(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		if err := sleep(ctx, policy, attempt+1, delay, err); err != nil {
			return zero, err
		}
		delay = policy.nextDelay(delay)
	}

	return zero, &RetryError{Attempts: attempts, Last: lastErr}
}

func (p RetryPolicy) shouldRetry(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if code, ok := StatusCode(err); ok {
		return p.Retryable(code)
	}
	return IsTransient(err)
}

// sleep waits for delay or until ctx is cancelled; the timer is always
// stopped so nothing fires after an early return.
func sleep(ctx context.Context, policy RetryPolicy, retry int, delay time.Duration, reason error) error {
	if policy.OnRetry != nil {
		policy.OnRetry(retry, delay, reason)
	}
	metrics.Retries.Inc()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(service, operation string) func(int, time.Duration, error) {
	return func(retry int, delay time.Duration, reason error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("retry", retry),
			zap.Duration("delay", delay),
			zap.Error(reason),
		)
	}
}
