package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
)

// Completer is the completion contract the handlers depend on. *ai.Client
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string, p ai.Params) (string, error)
}

// Renderer renders prompt templates. *prompt.Builder satisfies it.
type Renderer interface {
	Render(id prompt.TemplateID, vars map[string]string) (string, error)
}

// Handlers bundles the four task handlers over shared read-only
// dependencies. It is safe for concurrent use.
type Handlers struct {
	completer     Completer
	prompts       Renderer
	strictAnswers bool
}

// Option configures Handlers.
type Option func(*Handlers)

// WithStrictAnswers makes the Multiple-Choice Selector require the option
// number as the first token of the reply.
func WithStrictAnswers(strict bool) Option {
	return func(h *Handlers) {
		h.strictAnswers = strict
	}
}

// NewHandlers creates task handlers.
func NewHandlers(completer Completer, prompts Renderer, opts ...Option) *Handlers {
	h := &Handlers{completer: completer, prompts: prompts}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ask renders id, completes it and returns the raw reply.
func (h *Handlers) ask(ctx context.Context, id prompt.TemplateID, vars map[string]string, p ai.Params) (string, error) {
	text, err := h.prompts.Render(id, vars)
	if err != nil {
		return "", err
	}
	return h.completer.Complete(ctx, text, p)
}

// askJSON runs ask, extracts the first JSON object, validates it against
// schema and decodes it into out.
func (h *Handlers) askJSON(ctx context.Context, id prompt.TemplateID, vars map[string]string, p ai.Params, schema *parse.Schema, out any) error {
	raw, err := h.ask(ctx, id, vars, p)
	if err != nil {
		return err
	}
	doc, err := parse.JSONObject(raw)
	if err != nil {
		return err
	}
	if err := parse.Validate(schema, doc); err != nil {
		return err
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encode %s: %w", schema.Name(), err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &parse.MalformedOutputError{Raw: raw, Err: err}
	}
	return nil
}
