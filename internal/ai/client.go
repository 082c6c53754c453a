package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const defaultMaxTokens = 2048

// Params are the per-call knobs of a completion. Model and temperature are
// fixed per deployment and live on the Client.
type Params struct {
	Task      TaskType
	MaxTokens int // overrides the client default when > 0
}

// Client is the completion client used by the task handlers. It holds only
// read-only settings and is safe for concurrent use.
type Client struct {
	provider    Provider
	model       string
	temperature float64
	maxTokens   int
	budget      *Budget
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel selects the model identifier sent to the provider.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = strings.TrimSpace(model)
	}
}

// WithTemperature sets the sampling temperature (0 = deterministic).
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithMaxTokens sets the default output token cap.
func WithMaxTokens(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithBudget meters every completion and refuses calls once b is spent.
func WithBudget(b *Budget) ClientOption {
	return func(c *Client) {
		c.budget = b
	}
}

// NewClient wraps a provider with deployment-wide model settings.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:    provider,
		temperature: 0.7,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Provider returns the underlying provider.
func (c *Client) Provider() Provider { return c.provider }

// Budget returns the token budget, or nil when usage is not metered.
func (c *Client) Budget() *Budget { return c.budget }

// Complete sends prompt as a single user message and returns the raw reply.
//
// It does not retry and does not impose a timeout; callers bound ctx. Failures
// are *ServiceError (including expired deadlines), ErrEmptyResponse or
// ErrBudgetExhausted.
func (c *Client) Complete(ctx context.Context, prompt string, p Params) (string, error) {
	if c.provider == nil {
		return "", fmt.Errorf("completion client has no provider")
	}
	if c.budget != nil {
		if err := c.budget.Check(); err != nil {
			return "", err
		}
	}

	maxTokens := c.maxTokens
	if p.MaxTokens > 0 {
		maxTokens = p.MaxTokens
	}
	temp := c.temperature

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Messages:    []Message{{Role: "user", Content: prompt}},
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: &temp,
		Task:        p.Task,
	})
	if err != nil {
		slog.Warn("completion failed",
			"provider", c.provider.Name(),
			"task", p.Task.String(),
			"error", err,
		)
		return "", err
	}
	if c.budget != nil {
		c.budget.Record(p.Task, resp)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyResponse
	}

	slog.Debug("completion finished",
		"provider", c.provider.Name(),
		"task", p.Task.String(),
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
	)
	return resp.Content, nil
}
