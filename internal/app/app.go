// Package app assembles the resolution pipeline from configuration. Both the
// HTTP server and the CLI build their dependencies through New.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/api"
	"github.com/p-n-ai/pai-coursework/internal/platform/cache"
	"github.com/p-n-ai/pai-coursework/internal/platform/config"
	"github.com/p-n-ai/pai-coursework/internal/platform/database"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
	"github.com/p-n-ai/pai-coursework/internal/resolve"
	"github.com/p-n-ai/pai-coursework/internal/store"
	"github.com/p-n-ai/pai-coursework/internal/stream"
	"github.com/p-n-ai/pai-coursework/internal/submit"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

// App holds the wired pipeline.
type App struct {
	Config       *config.Config
	Client       *ai.Client
	Prompts      *prompt.Builder
	Tasks        *task.Handlers
	Submitter    resolve.Submitter
	Store        store.RunStore
	Hub          *stream.Hub
	Orchestrator *resolve.Orchestrator

	db    *database.DB
	cache *cache.Cache
}

type options struct {
	provider  ai.Provider
	submitter resolve.Submitter
}

// Option overrides a dependency New would otherwise build from config.
type Option func(*options)

// WithProvider replaces the configured completion provider.
func WithProvider(p ai.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithSubmitter replaces the configured submission adapter. The duplicate
// guard still wraps it when a cache is configured.
func WithSubmitter(s resolve.Submitter) Option {
	return func(o *options) { o.submitter = s }
}

// New connects to the configured backing services and wires the pipeline.
// Database and cache are optional: without them runs are kept in memory and
// the duplicate-submission guard is off.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Hub: stream.NewHub()}

	provider := o.provider
	if provider == nil {
		p, err := NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	a.Client = ai.NewClient(provider,
		ai.WithModel(cfg.AI.Model),
		ai.WithTemperature(cfg.AI.Temperature),
		ai.WithMaxTokens(cfg.AI.MaxTokens),
		ai.WithBudget(ai.NewBudget(cfg.AI.TokenBudget)),
	)

	prompts, err := prompt.NewBuilder()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	a.Prompts = prompts
	a.Tasks = task.NewHandlers(a.Client, prompts, task.WithStrictAnswers(cfg.Pipeline.StrictAnswers))

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.db = db
		pg, err := store.NewPostgresStore(ctx, db)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = pg
	} else {
		a.Store = store.NewMemoryStore()
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = c
	}

	a.Submitter = o.submitter
	if a.Submitter == nil {
		a.Submitter = newSubmitter(cfg.Submit)
	}
	if a.cache != nil {
		a.Submitter = submit.NewGuard(a.Submitter, a.cache, cfg.Submit.GuardTTL)
	}

	orch, err := resolve.New(resolve.Config{
		Tasks:     a.Tasks,
		Submitter: a.Submitter,
		Recorder:  resolve.MultiRecorder{a.Store, a.Hub},
		Retry: resolve.RetryPolicy{
			MaxAttempts: cfg.Pipeline.MaxAttempts,
			Backoff:     cfg.Pipeline.RetryBackoff,
		},
		HonorTimeGates: cfg.Pipeline.HonorTimeGates,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Orchestrator = orch

	slog.Info("pipeline ready",
		"provider", provider.Name(),
		"model", cfg.AI.Model,
		"store", storeKind(a.db),
		"guard", a.cache != nil,
		"dry_run", cfg.Submit.DryRun,
	)
	return a, nil
}

// APIDeps returns the collaborators the HTTP API needs.
func (a *App) APIDeps() api.Deps {
	return api.Deps{
		Resolver:    a.Orchestrator,
		Analyzer:    a.Tasks,
		Runs:        a.Store,
		Prompts:     a.Prompts,
		Events:      a.Hub,
		Budget:      a.Client.Budget(),
		Ready:       a.Ready,
		UnitTimeout: a.Config.Pipeline.UnitTimeout,
	}
}

// NewProvider builds the configured provider, chained with any fallbacks.
// A missing credential is logged, not returned; calls through that provider
// fail with an authentication error instead.
func NewProvider(cfg *config.Config) (ai.Provider, error) {
	primary, err := providerByName(cfg, cfg.AI.Provider)
	if err != nil {
		return nil, err
	}
	if len(cfg.AI.Fallback) == 0 {
		return primary, nil
	}

	router := ai.NewRouter()
	router.Register(cfg.AI.Provider, primary)
	for _, name := range cfg.AI.Fallback {
		p, err := providerByName(cfg, name)
		if err != nil {
			return nil, err
		}
		router.Register(name, p)
	}
	return router, nil
}

func providerByName(cfg *config.Config, name string) (ai.Provider, error) {
	key := cfg.KeyFor(name)
	if key == "" && name != "ollama" {
		slog.Warn("no API key configured for completion provider", "provider", name)
	}

	switch name {
	case "openai":
		return ai.NewOpenAIProvider(key, ai.WithBaseURL(cfg.AI.OpenAI.BaseURL)), nil
	case "deepseek":
		return ai.NewDeepSeekProvider(key), nil
	case "openrouter":
		return ai.NewOpenRouterProvider(key), nil
	case "anthropic":
		return ai.NewAnthropicProvider(key), nil
	case "google":
		return ai.NewGoogleProvider(key), nil
	case "ollama":
		return ai.NewOllamaProvider(cfg.AI.Ollama.URL), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", name)
	}
}

func newSubmitter(cfg config.SubmitConfig) resolve.Submitter {
	if cfg.DryRun {
		return submit.NewDryRun()
	}
	return submit.NewSkyvern(submit.SkyvernConfig{
		BaseURL:      cfg.SkyvernURL,
		APIKey:       cfg.SkyvernAPIKey,
		TargetURL:    cfg.TargetURL,
		PollInterval: cfg.PollInterval,
	})
}

// Ready checks the backing services the pipeline depends on.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.cache != nil {
		if err := a.cache.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("close cache", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

func storeKind(db *database.DB) string {
	if db != nil {
		return "postgres"
	}
	return "memory"
}
