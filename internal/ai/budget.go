package ai

import (
	"errors"
	"sync"
)

// ErrBudgetExhausted is returned by a Client whose token budget is spent.
var ErrBudgetExhausted = errors.New("token budget exhausted")

// Usage is the token count attributed to one task type.
type Usage struct {
	Calls        int64 `json:"calls"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 { return u.InputTokens + u.OutputTokens }

// Budget meters completion tokens per task type against an optional process
// wide limit. A limit of zero means unlimited.
type Budget struct {
	mu    sync.RWMutex
	limit int64
	usage map[TaskType]Usage
}

// NewBudget creates a budget capped at limit tokens.
func NewBudget(limit int64) *Budget {
	return &Budget{
		limit: limit,
		usage: make(map[TaskType]Usage),
	}
}

// Check returns ErrBudgetExhausted once recorded usage reaches the limit.
func (b *Budget) Check() error {
	if b.limit <= 0 {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.used() >= b.limit {
		return ErrBudgetExhausted
	}
	return nil
}

// Record attributes a finished completion to task.
func (b *Budget) Record(task TaskType, resp CompletionResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.usage[task]
	u.Calls++
	u.InputTokens += int64(max(resp.InputTokens, 0))
	u.OutputTokens += int64(max(resp.OutputTokens, 0))
	b.usage[task] = u
}

// Snapshot returns usage keyed by task name.
func (b *Budget) Snapshot() map[string]Usage {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Usage, len(b.usage))
	for task, u := range b.usage {
		out[task.String()] = u
	}
	return out
}

// Remaining returns the tokens left, or -1 when unlimited.
func (b *Budget) Remaining() int64 {
	if b.limit <= 0 {
		return -1
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return max(b.limit-b.used(), 0)
}

func (b *Budget) used() int64 {
	var n int64
	for _, u := range b.usage {
		n += u.Total()
	}
	return n
}
