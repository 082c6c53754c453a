package ai

import (
	"context"
	"errors"
	"testing"
)

func TestBudget_Unlimited(t *testing.T) {
	b := NewBudget(0)
	b.Record(TaskResponse, CompletionResponse{InputTokens: 1 << 20, OutputTokens: 1 << 20})

	if err := b.Check(); err != nil {
		t.Errorf("Check() error = %v, want nil for unlimited budget", err)
	}
	if got := b.Remaining(); got != -1 {
		t.Errorf("Remaining() = %d, want -1", got)
	}
}

func TestBudget_Exhausted(t *testing.T) {
	b := NewBudget(100)
	b.Record(TaskAssessment, CompletionResponse{InputTokens: 40, OutputTokens: 20})
	if err := b.Check(); err != nil {
		t.Fatalf("Check() error = %v, want nil at 60/100", err)
	}
	if got := b.Remaining(); got != 40 {
		t.Errorf("Remaining() = %d, want 40", got)
	}

	b.Record(TaskSelection, CompletionResponse{InputTokens: 30, OutputTokens: 10})
	if err := b.Check(); !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("Check() error = %v, want ErrBudgetExhausted", err)
	}
	if got := b.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestBudget_SnapshotByTask(t *testing.T) {
	b := NewBudget(0)
	b.Record(TaskSelection, CompletionResponse{InputTokens: 5, OutputTokens: 1})
	b.Record(TaskSelection, CompletionResponse{InputTokens: 5, OutputTokens: 1})
	b.Record(TaskResponse, CompletionResponse{InputTokens: 10, OutputTokens: 90})

	snap := b.Snapshot()
	if got := snap["selection"]; got.Calls != 2 || got.Total() != 12 {
		t.Errorf("selection usage = %+v", got)
	}
	if got := snap["response"]; got.OutputTokens != 90 {
		t.Errorf("response usage = %+v", got)
	}
}

func TestClient_BudgetBlocksCalls(t *testing.T) {
	mock := NewMockProvider("fine")
	budget := NewBudget(14)
	client := NewClient(mock, WithBudget(budget))

	if _, err := client.Complete(context.Background(), "p", Params{Task: TaskSelection}); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	_, err := client.Complete(context.Background(), "p", Params{Task: TaskSelection})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("second Complete() error = %v, want ErrBudgetExhausted", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", mock.Calls())
	}
}
