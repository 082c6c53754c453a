package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

// ErrMissingQuestion is returned when a multiple-choice unit carries no question.
var ErrMissingQuestion = errors.New("multiple-choice unit has no question")

// StageError records the state a unit was in when it failed.
type StageError struct {
	UnitID string
	Stage  State
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("unit %s failed in %s: %v", e.UnitID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// UnsupportedAssignmentKindError is returned for kinds the pipeline cannot answer.
type UnsupportedAssignmentKindError struct {
	Kind task.AssignmentKind
}

func (e *UnsupportedAssignmentKindError) Error() string {
	return fmt.Sprintf("unsupported assignment kind %q", e.Kind)
}

// TimeGatedError is returned when a unit is locked until a future time.
type TimeGatedError struct {
	AvailableAt time.Time
}

func (e *TimeGatedError) Error() string {
	return fmt.Sprintf("assignment is time-gated until %s", e.AvailableAt.Format(time.RFC3339))
}

// SubmissionError wraps a Submitter failure.
type SubmissionError struct {
	UnitID string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit unit %s: %v", e.UnitID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Error kinds reported in outcomes.
const (
	KindService         = "service"
	KindAuthentication  = "authentication"
	KindEmptyResponse   = "empty_response"
	KindBudgetExhausted = "budget_exhausted"
	KindMalformedOutput = "malformed_output"
	KindSchemaViolation = "schema_violation"
	KindNoInteger       = "no_integer"
	KindOutOfRange      = "out_of_range"
	KindMissingVariable = "missing_variable"
	KindUnsupportedKind = "unsupported_kind"
	KindMissingQuestion = "missing_question"
	KindTimeGated       = "time_gated"
	KindSubmission      = "submission"
	KindCanceled        = "canceled"
	KindUnknown         = "unknown"
)

// ErrorKind maps err to a stable, user-facing error kind.
func ErrorKind(err error) string {
	var (
		subErr       *SubmissionError
		svcErr       *ai.ServiceError
		malformed    *parse.MalformedOutputError
		schemaErr    *parse.SchemaViolationError
		rangeErr     *task.OutOfRangeAnswerError
		missingVar   *prompt.MissingVariableError
		unsupported  *UnsupportedAssignmentKindError
		timeGatedErr *TimeGatedError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &subErr):
		return KindSubmission
	case ai.IsAuthentication(err):
		return KindAuthentication
	case errors.As(err, &svcErr):
		return KindService
	case errors.Is(err, ai.ErrEmptyResponse):
		return KindEmptyResponse
	case errors.Is(err, ai.ErrBudgetExhausted):
		return KindBudgetExhausted
	case errors.As(err, &malformed):
		return KindMalformedOutput
	case errors.As(err, &schemaErr):
		return KindSchemaViolation
	case errors.Is(err, parse.ErrNoIntegerFound):
		return KindNoInteger
	case errors.As(err, &rangeErr):
		return KindOutOfRange
	case errors.As(err, &missingVar):
		return KindMissingVariable
	case errors.As(err, &unsupported):
		return KindUnsupportedKind
	case errors.Is(err, ErrMissingQuestion), errors.Is(err, task.ErrNoOptions):
		return KindMissingQuestion
	case errors.As(err, &timeGatedErr):
		return KindTimeGated
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
