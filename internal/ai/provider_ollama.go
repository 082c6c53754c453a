package ai

import (
	"context"
	"net/http"
	"strings"
)

// OllamaProvider implements Provider for self-hosted Ollama, LM Studio and
// similar servers exposing /v1/chat/completions without authentication.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
	models  []ModelInfo
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithOllamaHTTPClient sets a custom HTTP client.
func WithOllamaHTTPClient(client *http.Client) OllamaOption {
	return func(p *OllamaProvider) {
		p.client = client
	}
}

// WithOllamaModels overrides the advertised model list.
func WithOllamaModels(models []ModelInfo) OllamaOption {
	return func(p *OllamaProvider) {
		p.models = models
	}
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(baseURL string, opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = "llama3:8b"
	}
	return chatCompletion(ctx, p.client, p.Name(), p.baseURL+"/v1/chat/completions", nil, openaiRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
}

func (p *OllamaProvider) Models() []ModelInfo {
	if p.models != nil {
		return p.models
	}
	return []ModelInfo{
		{ID: "llama3:8b", Name: "Llama 3 8B", MaxTokens: 8192, Description: "Free self-hosted model via Ollama"},
	}
}

func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	return getOK(ctx, p.client, p.Name(), p.baseURL+"/api/tags", nil)
}
