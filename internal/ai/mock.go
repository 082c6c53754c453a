package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for completion providers.
//
// Responses are served in order; once exhausted the last one repeats.
// Err, when set, is returned instead of any response.
type MockProvider struct {
	Responses []string
	Err       error

	mu       sync.Mutex
	calls    int
	requests []CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given responses in order.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{Responses: responses}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	m.calls++
	if err := ctx.Err(); err != nil {
		return CompletionResponse{}, &ServiceError{Provider: "mock", Kind: FailureTimeout, Err: err}
	}
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}
	if len(m.Responses) == 0 {
		return CompletionResponse{}, ErrEmptyResponse
	}

	idx := m.calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	content := m.Responses[idx]
	return CompletionResponse{
		Content:      content,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(content),
	}, nil
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request, or nil if none was made.
func (m *MockProvider) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	return m.Err
}
