package resolve

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a unit's position in the resolution state machine.
type State string

const (
	StatePending            State = "pending"
	StateClassifying        State = "classifying"
	StateGenerating         State = "generating"
	StateAwaitingSubmission State = "awaiting_submission"
	StateDone               State = "done"
	StateErrored            State = "errored"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}

var validTransitions = map[State][]State{
	StatePending:            {StateClassifying, StateErrored},
	StateClassifying:        {StateGenerating, StateErrored},
	StateGenerating:         {StateAwaitingSubmission, StateErrored},
	StateAwaitingSubmission: {StateDone, StateErrored},
}

// CanTransition reports whether from→to is an edge of the state machine.
func CanTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition records one state change of a unit.
type Transition struct {
	RunID  uuid.UUID `json:"run_id"`
	UnitID string    `json:"unit_id"`
	From   State     `json:"from"`
	To     State     `json:"to"`
	At     time.Time `json:"at"`
	Err    string    `json:"error,omitempty"`
}

// Recorder observes resolution progress. Recorder failures are logged and
// never change a unit's result.
type Recorder interface {
	RecordTransition(ctx context.Context, t Transition) error
	RecordOutcome(ctx context.Context, o Outcome) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordTransition(context.Context, Transition) error { return nil }
func (NopRecorder) RecordOutcome(context.Context, Outcome) error       { return nil }

// MemoryRecorder keeps transitions and outcomes in memory for tests.
type MemoryRecorder struct {
	mu          sync.Mutex
	transitions []Transition
	outcomes    []Outcome
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) RecordTransition(_ context.Context, t Transition) error {
	r.mu.Lock()
	r.transitions = append(r.transitions, t)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRecorder) RecordOutcome(_ context.Context, o Outcome) error {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRecorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition{}, r.transitions...)
}

func (r *MemoryRecorder) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome{}, r.outcomes...)
}

// MultiRecorder fans out to every recorder and joins their errors.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordTransition(ctx context.Context, t Transition) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordTransition(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiRecorder) RecordOutcome(ctx context.Context, o Outcome) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordOutcome(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
