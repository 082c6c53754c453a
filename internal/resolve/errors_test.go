package resolve

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ai.ServiceError{Kind: ai.FailureServer, StatusCode: 502}, KindService},
		{&ai.ServiceError{Kind: ai.FailureAuth, Err: ai.ErrMissingCredential}, KindAuthentication},
		{fmt.Errorf("generate response: %w", ai.ErrEmptyResponse), KindEmptyResponse},
		{fmt.Errorf("select option: %w", ai.ErrBudgetExhausted), KindBudgetExhausted},
		{&parse.MalformedOutputError{Raw: "x"}, KindMalformedOutput},
		{&parse.SchemaViolationError{Schema: "s"}, KindSchemaViolation},
		{&parse.NoIntegerFoundError{Raw: "x"}, KindNoInteger},
		{&task.OutOfRangeAnswerError{Answer: 5, Options: 4}, KindOutOfRange},
		{&prompt.MissingVariableError{Template: "t", Variable: "v"}, KindMissingVariable},
		{&UnsupportedAssignmentKindError{Kind: task.KindFileUpload}, KindUnsupportedKind},
		{ErrMissingQuestion, KindMissingQuestion},
		{&TimeGatedError{}, KindTimeGated},
		{&SubmissionError{UnitID: "u", Err: context.DeadlineExceeded}, KindSubmission},
		{context.Canceled, KindCanceled},
		{errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		wrapped := tt.err
		if wrapped != nil {
			wrapped = &StageError{UnitID: "u", Stage: StateGenerating, Err: tt.err}
		}
		if got := ErrorKind(wrapped); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	for _, s := range []State{StatePending, StateClassifying, StateGenerating, StateAwaitingSubmission} {
		if !CanTransition(s, StateErrored) {
			t.Errorf("%s -> errored should be allowed", s)
		}
	}
	if CanTransition(StateClassifying, StateDone) {
		t.Error("classifying -> done should be rejected")
	}
	if CanTransition(StateDone, StateErrored) || CanTransition(StateErrored, StatePending) {
		t.Error("terminal states must have no outgoing transitions")
	}
}

func TestFingerprint(t *testing.T) {
	a := Unit{Content: task.ContentUnit{Body: "b", Context: "c"}}
	b := Unit{Content: task.ContentUnit{Body: "b", Context: "c"}}
	c := Unit{Content: task.ContentUnit{Body: "bc"}}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal units must share a fingerprint")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("body/context boundary must affect the fingerprint")
	}
	if len(a.Fingerprint()) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(a.Fingerprint()))
	}
	if got := (Unit{ID: "given"}).withID().ID; got != "given" {
		t.Errorf("withID() replaced an explicit id: %q", got)
	}
}
