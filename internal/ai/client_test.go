package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-coursework/internal/ai"
)

func TestClient_Complete_UsesDeploymentSettings(t *testing.T) {
	mock := ai.NewMockProvider("an answer")
	client := ai.NewClient(mock,
		ai.WithModel("gpt-4"),
		ai.WithTemperature(0),
		ai.WithMaxTokens(512),
	)

	got, err := client.Complete(context.Background(), "prompt text", ai.Params{Task: ai.TaskResponse})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "an answer" {
		t.Errorf("Complete() = %q, want %q", got, "an answer")
	}

	req := mock.LastRequest()
	if req == nil {
		t.Fatal("provider was not called")
	}
	if req.Model != "gpt-4" {
		t.Errorf("Model = %q, want gpt-4", req.Model)
	}
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", req.Temperature)
	}
	if req.MaxTokens != 512 {
		t.Errorf("MaxTokens = %d, want 512", req.MaxTokens)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "prompt text" {
		t.Errorf("Messages = %+v, want single user prompt", req.Messages)
	}
}

func TestClient_Complete_ParamsOverrideMaxTokens(t *testing.T) {
	mock := ai.NewMockProvider("7")
	client := ai.NewClient(mock, ai.WithMaxTokens(512))

	if _, err := client.Complete(context.Background(), "p", ai.Params{MaxTokens: 16}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got := mock.LastRequest().MaxTokens; got != 16 {
		t.Errorf("MaxTokens = %d, want 16", got)
	}
}

func TestClient_Complete_BlankReplyIsEmptyResponse(t *testing.T) {
	client := ai.NewClient(ai.NewMockProvider("   \n"))

	_, err := client.Complete(context.Background(), "p", ai.Params{})
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("Complete() error = %v, want ErrEmptyResponse", err)
	}
}

func TestClient_Complete_PropagatesServiceError(t *testing.T) {
	mock := ai.NewMockProvider()
	mock.Err = &ai.ServiceError{Provider: "mock", Kind: ai.FailureRateLimit, StatusCode: 429}
	client := ai.NewClient(mock)

	_, err := client.Complete(context.Background(), "p", ai.Params{})
	var se *ai.ServiceError
	if !errors.As(err, &se) || se.Kind != ai.FailureRateLimit {
		t.Fatalf("Complete() error = %v, want rate-limit ServiceError", err)
	}
}

func TestClient_Complete_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := ai.NewClient(ai.NewMockProvider("x"))
	_, err := client.Complete(ctx, "p", ai.Params{})
	var se *ai.ServiceError
	if !errors.As(err, &se) || se.Kind != ai.FailureTimeout {
		t.Fatalf("Complete() error = %v, want timeout ServiceError", err)
	}
}
