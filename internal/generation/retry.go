package generation

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"
)

// RetryPolicy configures WithRetry.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first one.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsTransient.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the policy used by the resolver.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

type retryGenerator struct {
	next   Generator
	policy RetryPolicy
}

// WithRetry retries transient generation failures with exponential backoff.
// ErrNoStructuredOutput and context errors are never retried.
func WithRetry(next Generator, policy RetryPolicy) Generator {
	if policy.MaxAttempts <= 1 {
		return next
	}
	if policy.Retryable == nil {
		policy.Retryable = IsTransient
	}
	return &retryGenerator{next: next, policy: policy}
}

func (r *retryGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	exp := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		exp.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		exp.MaxInterval = r.policy.MaxInterval
	}
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.policy.MaxAttempts-1)), ctx)

	var out []byte
	err := backoff.Retry(func() error {
		raw, err := r.next.Generate(ctx, req)
		if err != nil {
			if !r.policy.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = raw
		return nil
	}, b)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IsTransient reports whether err is likely to go away on retry: rate limits,
// server errors and transport failures. Schema failures, client errors and
// context cancellation are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoStructuredOutput) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}
