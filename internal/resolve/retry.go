package resolve

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

// RetryPolicy controls re-invoking the completion-backed stages. The zero
// value makes a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff is multiplied by the attempt number between attempts.
	Backoff time.Duration
	// Retryable decides which errors are worth another attempt. Nil means
	// DefaultRetryable.
	Retryable func(error) bool
}

// DefaultRetryable retries model-output problems and transient service
// failures. Authentication and bad requests are never retried.
func DefaultRetryable(err error) bool {
	var (
		malformed *parse.MalformedOutputError
		schemaErr *parse.SchemaViolationError
		rangeErr  *task.OutOfRangeAnswerError
	)
	switch {
	case ai.IsTransient(err):
		return true
	case errors.Is(err, ai.ErrEmptyResponse),
		errors.Is(err, parse.ErrNoIntegerFound),
		errors.As(err, &malformed),
		errors.As(err, &schemaErr),
		errors.As(err, &rangeErr):
		return true
	default:
		return false
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// withRetry runs fn until it succeeds, the policy is exhausted or ctx ends.
// The last error is returned.
func withRetry[T any](ctx context.Context, p RetryPolicy, unitID string, stage State, fn func(context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		result, err = fn(ctx)
		if err == nil || attempt == p.attempts() || ctx.Err() != nil || !retryable(err) {
			return result, err
		}

		wait := p.Backoff * time.Duration(attempt)
		slog.Warn("retrying stage",
			"unit_id", unitID,
			"state", string(stage),
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, err
		case <-timer.C:
		}
	}
	return result, err
}
