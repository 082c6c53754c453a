// Package ai provides the completion client the resolution pipeline talks to,
// backed by interchangeable hosted or self-hosted model providers.
package ai

import "context"

// TaskType tags a completion with the pipeline task that issued it.
// It is used for logging and token accounting only; routing is fixed by config.
type TaskType int

const (
	TaskAnalysis TaskType = iota
	TaskAssessment
	TaskResponse
	TaskSelection
)

func (t TaskType) String() string {
	switch t {
	case TaskAnalysis:
		return "analysis"
	case TaskAssessment:
		return "assessment"
	case TaskResponse:
		return "response"
	case TaskSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a provider completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output from a provider completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all completion backends implement.
//
// Complete must return a *ServiceError for transport, auth, rate-limit and
// backend failures, and ErrEmptyResponse when the backend answers without content.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}
