package task_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

var arithmetic = task.Question{Text: "2+2=?", Options: []string{"3", "4", "5", "6"}}

func TestSelectOption(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int
		wantErr func(error) bool
	}{
		{name: "bare number", reply: "2", want: 2},
		{name: "with prose", reply: "The answer is 2.", want: 2},
		{name: "last option", reply: "4", want: 4},
		{
			name:  "above range",
			reply: "5",
			wantErr: func(err error) bool {
				var oe *task.OutOfRangeAnswerError
				return errors.As(err, &oe) && oe.Answer == 5 && oe.Options == 4
			},
		},
		{
			name:  "zero",
			reply: "0",
			wantErr: func(err error) bool {
				var oe *task.OutOfRangeAnswerError
				return errors.As(err, &oe)
			},
		},
		{
			name:  "no digits",
			reply: "I am not sure.",
			wantErr: func(err error) bool {
				return errors.Is(err, parse.ErrNoIntegerFound)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newHandlers(t, tt.reply)
			got, err := h.SelectOption(t.Context(), arithmetic, "")
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("SelectOption() error = %v", err)
				}
				if got != 0 {
					t.Errorf("SelectOption() = %d alongside an error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectOption() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SelectOption() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectOption_PromptListsNumberedOptions(t *testing.T) {
	h, mock := newHandlers(t, "2")

	if _, err := h.SelectOption(t.Context(), arithmetic, "Arithmetic"); err != nil {
		t.Fatalf("SelectOption() error = %v", err)
	}
	content := mock.LastRequest().Messages[0].Content
	if !strings.Contains(content, "1. 3\n2. 4\n3. 5\n4. 6") {
		t.Errorf("prompt options not numbered from 1:\n%s", content)
	}
	if mock.LastRequest().Task != ai.TaskSelection {
		t.Errorf("Task = %v, want selection", mock.LastRequest().Task)
	}
}

func TestSelectOption_NoOptions(t *testing.T) {
	h, mock := newHandlers(t, "1")

	_, err := h.SelectOption(t.Context(), task.Question{Text: "?"}, "")
	if !errors.Is(err, task.ErrNoOptions) {
		t.Fatalf("SelectOption() error = %v, want ErrNoOptions", err)
	}
	if mock.Calls() != 0 {
		t.Error("completion service should not be called without options")
	}
}

func TestSelectOption_Strict(t *testing.T) {
	mock := ai.NewMockProvider("Of the 4 options, I pick 2")
	builder, err := prompt.NewBuilder()
	if err != nil {
		t.Fatalf("prompt.NewBuilder() error = %v", err)
	}
	h := task.NewHandlers(ai.NewClient(mock), builder, task.WithStrictAnswers(true))

	_, err = h.SelectOption(t.Context(), arithmetic, "")
	if !errors.Is(err, parse.ErrNoIntegerFound) {
		t.Fatalf("SelectOption() error = %v, want ErrNoIntegerFound", err)
	}
}

func TestParseAssignmentKind(t *testing.T) {
	tests := map[string]task.AssignmentKind{
		"essay":            task.KindEssay,
		"Short_Answer":     task.KindEssay,
		"multiple-choice":  task.KindMultipleChoice,
		"Multiple  Choice": task.KindMultipleChoice,
		"QUIZ":             task.KindMultipleChoice,
		"file-upload":      task.KindFileUpload,
		"upload":           task.KindFileUpload,
		"discussion post":  task.KindOther,
		"":                 task.KindOther,
	}
	for label, want := range tests {
		if got := task.ParseAssignmentKind(label); got != want {
			t.Errorf("ParseAssignmentKind(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestQuestionOption(t *testing.T) {
	if got, ok := arithmetic.Option(2); !ok || got != "4" {
		t.Errorf("Option(2) = %q, %v", got, ok)
	}
	for _, n := range []int{0, 5, -1} {
		if _, ok := arithmetic.Option(n); ok {
			t.Errorf("Option(%d) should be out of range", n)
		}
	}
}
