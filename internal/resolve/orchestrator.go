// Package resolve drives a unit of work through classification, answer
// generation and submission.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-coursework/internal/task"
)

// Tasks is the subset of the task handlers the orchestrator calls.
// *task.Handlers satisfies it.
type Tasks interface {
	AssessAssignment(ctx context.Context, unit task.ContentUnit) (task.Assessment, error)
	GenerateResponse(ctx context.Context, assignmentPrompt, courseContext string) (string, error)
	SelectOption(ctx context.Context, q task.Question, courseContext string) (int, error)
}

// Config holds orchestrator dependencies.
type Config struct {
	Tasks     Tasks
	Submitter Submitter
	Recorder  Recorder    // defaults to NopRecorder
	Retry     RetryPolicy // zero value: no retries
	// HonorTimeGates fails units whose assessment reports a future unlock time.
	HonorTimeGates bool
	Now            func() time.Time
}

// Outcome is the result of resolving one unit.
type Outcome struct {
	RunID       uuid.UUID           `json:"run_id"`
	UnitID      string              `json:"unit_id"`
	State       State               `json:"state"`
	Kind        task.AssignmentKind `json:"kind,omitempty"`
	Assessment  *task.Assessment    `json:"assessment,omitempty"`
	Answer      *Answer             `json:"answer,omitempty"`
	FailedStage State               `json:"failed_stage,omitempty"`
	ErrorKind   string              `json:"error_kind,omitempty"`
	Err         string              `json:"error,omitempty"`
	Transitions []Transition        `json:"transitions"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// Orchestrator holds only read-only dependencies; Resolve may be called from
// many goroutines at once.
type Orchestrator struct {
	tasks          Tasks
	submitter      Submitter
	recorder       Recorder
	retry          RetryPolicy
	honorTimeGates bool
	now            func() time.Time
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Tasks == nil {
		return nil, fmt.Errorf("orchestrator requires task handlers")
	}
	if cfg.Submitter == nil {
		return nil, fmt.Errorf("orchestrator requires a submitter")
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		tasks:          cfg.Tasks,
		submitter:      cfg.Submitter,
		recorder:       recorder,
		retry:          cfg.Retry,
		honorTimeGates: cfg.HonorTimeGates,
		now:            now,
	}, nil
}

// Resolve runs u through the state machine. The returned Outcome is always
// populated; the error is a *StageError when the unit ends in StateErrored.
func (o *Orchestrator) Resolve(ctx context.Context, u Unit) (Outcome, error) {
	u = u.withID()
	r := &run{
		o: o,
		outcome: Outcome{
			RunID:     uuid.New(),
			UnitID:    u.ID,
			State:     StatePending,
			StartedAt: o.now(),
		},
	}

	slog.Info("resolving unit", "unit_id", u.ID, "run_id", r.outcome.RunID.String())

	r.move(ctx, StateClassifying, nil)
	assessment, err := withRetry(ctx, o.retry, u.ID, StateClassifying,
		func(ctx context.Context) (task.Assessment, error) {
			return o.tasks.AssessAssignment(ctx, u.Content)
		})
	if err != nil {
		return r.fail(ctx, err)
	}
	r.outcome.Assessment = &assessment
	r.outcome.Kind = assessment.Kind

	if err := o.checkGate(assessment); err != nil {
		return r.fail(ctx, err)
	}
	if assessment.Kind == task.KindFileUpload {
		return r.fail(ctx, &UnsupportedAssignmentKindError{Kind: assessment.Kind})
	}
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, err)
	}

	r.move(ctx, StateGenerating, nil)
	answer, err := withRetry(ctx, o.retry, u.ID, StateGenerating,
		func(ctx context.Context) (Answer, error) {
			return o.answer(ctx, u, assessment.Kind)
		})
	if err != nil {
		return r.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return r.fail(ctx, err)
	}

	r.move(ctx, StateAwaitingSubmission, nil)
	if err := o.submitter.Submit(ctx, Submission{UnitID: u.ID, Answer: answer}); err != nil {
		return r.fail(ctx, &SubmissionError{UnitID: u.ID, Err: err})
	}
	r.outcome.Answer = &answer

	r.move(ctx, StateDone, nil)
	return r.finish(ctx), nil
}

func (o *Orchestrator) checkGate(a task.Assessment) error {
	if !o.honorTimeGates || !a.TimeGate.Gated || a.TimeGate.AvailableAt == nil {
		return nil
	}
	if a.TimeGate.AvailableAt.After(o.now()) {
		return &TimeGatedError{AvailableAt: *a.TimeGate.AvailableAt}
	}
	return nil
}

func (o *Orchestrator) answer(ctx context.Context, u Unit, kind task.AssignmentKind) (Answer, error) {
	switch kind {
	case task.KindMultipleChoice:
		if u.Question == nil {
			return Answer{}, ErrMissingQuestion
		}
		n, err := o.tasks.SelectOption(ctx, *u.Question, u.Content.Context)
		if err != nil {
			return Answer{}, err
		}
		label, _ := u.Question.Option(n)
		return Answer{Kind: AnswerOption, Option: n, Text: label}, nil
	case task.KindEssay, task.KindOther:
		text, err := o.tasks.GenerateResponse(ctx, u.Content.Body, u.Content.Context)
		if err != nil {
			return Answer{}, err
		}
		return Answer{Kind: AnswerText, Text: text}, nil
	default:
		return Answer{}, &UnsupportedAssignmentKindError{Kind: kind}
	}
}

// run tracks one Resolve call.
type run struct {
	o       *Orchestrator
	outcome Outcome
}

func (r *run) move(ctx context.Context, to State, cause error) {
	from := r.outcome.State
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("resolve: invalid transition %s -> %s", from, to))
	}

	t := Transition{
		RunID:  r.outcome.RunID,
		UnitID: r.outcome.UnitID,
		From:   from,
		To:     to,
		At:     r.o.now(),
	}
	if cause != nil {
		t.Err = cause.Error()
	}
	r.outcome.State = to
	r.outcome.Transitions = append(r.outcome.Transitions, t)

	slog.Info("unit transition",
		"unit_id", t.UnitID,
		"from", string(from),
		"to", string(to),
	)
	if err := r.o.recorder.RecordTransition(context.WithoutCancel(ctx), t); err != nil {
		slog.Warn("record transition failed", "unit_id", t.UnitID, "error", err)
	}
}

func (r *run) fail(ctx context.Context, cause error) (Outcome, error) {
	stage := r.outcome.State
	stageErr := &StageError{UnitID: r.outcome.UnitID, Stage: stage, Err: cause}

	r.outcome.FailedStage = stage
	r.outcome.ErrorKind = ErrorKind(cause)
	r.outcome.Err = cause.Error()
	r.outcome.Answer = nil
	r.move(ctx, StateErrored, cause)

	slog.Error("unit failed",
		"unit_id", r.outcome.UnitID,
		"stage", string(stage),
		"error_kind", r.outcome.ErrorKind,
		"error", cause,
	)
	return r.finish(ctx), stageErr
}

func (r *run) finish(ctx context.Context) Outcome {
	r.outcome.FinishedAt = r.o.now()
	if err := r.o.recorder.RecordOutcome(context.WithoutCancel(ctx), r.outcome); err != nil {
		slog.Warn("record outcome failed", "unit_id", r.outcome.UnitID, "error", err)
	}
	return r.outcome
}

// IsStage reports whether err failed in stage.
func IsStage(err error, stage State) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
