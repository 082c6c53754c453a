package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
)

// ErrNoProvider is returned by a Router with nothing registered.
var ErrNoProvider = errors.New("no completion provider registered")

// Router is a Provider that walks a fallback chain. A provider is skipped
// when it fails with a transient or authentication error; any other failure
// is returned as is. Once the chain is exhausted the last error is returned.
type Router struct {
	mu        sync.RWMutex
	names     []string
	providers map[string]Provider
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{providers: make(map[string]Provider)}
}

// Register appends provider to the fallback chain. Registering a name again
// replaces the provider in place.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		r.names = append(r.names, name)
	}
	r.providers[name] = provider
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names) > 0
}

func (r *Router) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return "router(" + strings.Join(r.names, ",") + ")"
}

func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lastErr := ErrNoProvider
	for i, name := range r.names {
		resp, err := r.providers[name].Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !(IsTransient(err) || IsAuthentication(err)) {
			return CompletionResponse{}, err
		}
		if i < len(r.names)-1 {
			slog.Warn("completion provider failed, trying next",
				"provider", name,
				"next", r.names[i+1],
				"error", err,
			)
		}
	}
	return CompletionResponse{}, lastErr
}

func (r *Router) Models() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ModelInfo
	for _, name := range r.names {
		out = append(out, r.providers[name].Models()...)
	}
	return out
}

// HealthCheck succeeds when any provider in the chain is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for _, name := range r.names {
		err := r.providers[name].HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrNoProvider
	}
	return errors.Join(errs...)
}
