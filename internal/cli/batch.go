package cli

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

// Resolver runs one unit. *resolve.Orchestrator satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, u resolve.Unit) (resolve.Outcome, error)
}

// BatchOptions bound a batch run.
type BatchOptions struct {
	Concurrency int           // units in flight at once, at least 1
	Rate        float64       // units started per second, 0 for no limit
	UnitTimeout time.Duration // per-unit deadline, 0 for none
}

// RunBatch resolves units with bounded concurrency and returns their outcomes
// in input order. A failing unit does not stop the batch; cancelling ctx
// does, and units never started are left out of the result.
func RunBatch(ctx context.Context, r Resolver, units []resolve.Unit, opts BatchOptions) ([]resolve.Outcome, error) {
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	results := make([]resolve.Outcome, len(units))
	started := make([]bool, len(units))
	for i, u := range units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			started[i] = true

			uctx, cancel := gctx, context.CancelFunc(func() {})
			if opts.UnitTimeout > 0 {
				uctx, cancel = context.WithTimeout(gctx, opts.UnitTimeout)
			}
			defer cancel()

			results[i], _ = r.Resolve(uctx, u)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	out := make([]resolve.Outcome, 0, len(units))
	for i := range units {
		if started[i] {
			out = append(out, results[i])
		}
	}
	return out, err
}
