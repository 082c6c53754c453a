package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

// ErrAlreadySubmitted is returned when a unit was submitted within the guard TTL.
var ErrAlreadySubmitted = errors.New("unit already submitted")

const guardKeyPrefix = "pilot:submitted:"

// Claimer atomically claims keys with an expiry. *cache.Cache satisfies it.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Guard prevents submitting the same unit twice across processes.
type Guard struct {
	next    resolve.Submitter
	claimer Claimer
	ttl     time.Duration
}

// NewGuard wraps next with a duplicate-submission check.
func NewGuard(next resolve.Submitter, claimer Claimer, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{next: next, claimer: claimer, ttl: ttl}
}

func (g *Guard) Submit(ctx context.Context, sub resolve.Submission) error {
	key := guardKeyPrefix + sub.UnitID

	ok, err := g.claimer.Claim(ctx, key, g.ttl)
	if err != nil {
		return fmt.Errorf("claim submission: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAlreadySubmitted, sub.UnitID)
	}

	if err := g.next.Submit(ctx, sub); err != nil {
		if relErr := g.claimer.Release(context.WithoutCancel(ctx), key); relErr != nil {
			slog.Warn("release submission claim failed", "unit_id", sub.UnitID, "error", relErr)
		}
		return err
	}
	return nil
}
