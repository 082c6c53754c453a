// Package store keeps the history of resolution runs.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// RunStore records runs as they progress and serves them back. Every
// RunStore is a resolve.Recorder.
type RunStore interface {
	resolve.Recorder
	Get(ctx context.Context, runID uuid.UUID) (resolve.Outcome, error)
	// List returns the most recent runs first, without transitions.
	List(ctx context.Context, limit int) ([]resolve.Outcome, error)
}

// MemoryStore is an in-memory RunStore.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*resolve.Outcome
}

// NewMemoryStore creates an empty in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]*resolve.Outcome)}
}

func (s *MemoryStore) RecordTransition(_ context.Context, t resolve.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[t.RunID]
	if !ok {
		run = &resolve.Outcome{RunID: t.RunID, UnitID: t.UnitID, StartedAt: t.At}
		s.runs[t.RunID] = run
	}
	run.State = t.To
	run.Transitions = append(run.Transitions, t)
	return nil
}

func (s *MemoryStore) RecordOutcome(_ context.Context, o resolve.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.Transitions = append([]resolve.Transition{}, o.Transitions...)
	s.runs[o.RunID] = &o
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID uuid.UUID) (resolve.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return resolve.Outcome{}, ErrNotFound
	}
	out := *run
	out.Transitions = append([]resolve.Transition{}, run.Transitions...)
	return out, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]resolve.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]resolve.Outcome, 0, len(s.runs))
	for _, run := range s.runs {
		o := *run
		o.Transitions = nil
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
