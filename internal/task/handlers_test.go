package task_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
	"github.com/p-n-ai/pai-coursework/internal/task"
)

func newHandlers(t *testing.T, replies ...string) (*task.Handlers, *ai.MockProvider) {
	t.Helper()
	mock := ai.NewMockProvider(replies...)
	builder, err := prompt.NewBuilder()
	if err != nil {
		t.Fatalf("prompt.NewBuilder() error = %v", err)
	}
	return task.NewHandlers(ai.NewClient(mock), builder), mock
}

const fullAssessment = `Sure! {"kind": "Multiple Choice", "estimated_effort": "20 minutes",
 "time_gate": {"gated": true, "available_at": "2026-11-01T09:00:00Z"},
 "prerequisites": ["Week 1 reading"], "due_date": "2026-11-08"}`

func TestAssessAssignment(t *testing.T) {
	h, mock := newHandlers(t, fullAssessment)

	got, err := h.AssessAssignment(t.Context(), task.ContentUnit{Body: "Quiz 1: ten questions"})
	if err != nil {
		t.Fatalf("AssessAssignment() error = %v", err)
	}

	if got.Kind != task.KindMultipleChoice {
		t.Errorf("Kind = %q, want %q", got.Kind, task.KindMultipleChoice)
	}
	if got.EstimatedEffort != "20 minutes" {
		t.Errorf("EstimatedEffort = %q", got.EstimatedEffort)
	}
	if !got.TimeGate.Gated || got.TimeGate.AvailableAt == nil {
		t.Fatalf("TimeGate = %+v, want gated with time", got.TimeGate)
	}
	if want := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC); !got.TimeGate.AvailableAt.Equal(want) {
		t.Errorf("AvailableAt = %v, want %v", got.TimeGate.AvailableAt, want)
	}
	if len(got.Prerequisites) != 1 || got.Prerequisites[0] != "Week 1 reading" {
		t.Errorf("Prerequisites = %v", got.Prerequisites)
	}
	if got.DueDate == nil || got.DueDate.Day() != 8 {
		t.Errorf("DueDate = %v, want 2026-11-08", got.DueDate)
	}

	req := mock.LastRequest()
	if req.Task != ai.TaskAssessment {
		t.Errorf("Task = %v, want assessment", req.Task)
	}
	if !strings.Contains(req.Messages[0].Content, "Quiz 1: ten questions") {
		t.Error("prompt does not carry the assignment content")
	}
}

func TestCourseContextReachesPrompts(t *testing.T) {
	unit := task.ContentUnit{Body: "Week 4 quiz", Context: "STAT101, Prof. Rivera"}

	h, mock := newHandlers(t, fullAssessment)
	if _, err := h.AssessAssignment(t.Context(), unit); err != nil {
		t.Fatalf("AssessAssignment() error = %v", err)
	}
	if !strings.Contains(mock.LastRequest().Messages[0].Content, "STAT101, Prof. Rivera") {
		t.Error("assessment prompt does not carry the course context")
	}

	h, mock = newHandlers(t, `{"title": "Stats", "description": "", "assignments": [], "gated_content": []}`)
	if _, err := h.AnalyzeCourse(t.Context(), unit); err != nil {
		t.Fatalf("AnalyzeCourse() error = %v", err)
	}
	if !strings.Contains(mock.LastRequest().Messages[0].Content, "STAT101, Prof. Rivera") {
		t.Error("analysis prompt does not carry the course context")
	}
}

func TestAssessAssignment_WithoutContext(t *testing.T) {
	h, mock := newHandlers(t, fullAssessment)
	if _, err := h.AssessAssignment(t.Context(), task.ContentUnit{Body: "Essay 2"}); err != nil {
		t.Fatalf("AssessAssignment() error = %v", err)
	}
	if strings.Contains(mock.LastRequest().Messages[0].Content, "Course context:") {
		t.Error("empty course context should be left out of the prompt")
	}
}

func TestAssessAssignment_MissingFieldIsSchemaViolation(t *testing.T) {
	fields := []string{"kind", "estimated_effort", "time_gate", "prerequisites", "due_date"}
	full := map[string]string{
		"kind":             `"kind": "essay"`,
		"estimated_effort": `"estimated_effort": "1 hour"`,
		"time_gate":        `"time_gate": {"gated": false, "available_at": null}`,
		"prerequisites":    `"prerequisites": []`,
		"due_date":         `"due_date": null`,
	}

	for _, missing := range fields {
		t.Run(missing, func(t *testing.T) {
			var parts []string
			for _, f := range fields {
				if f != missing {
					parts = append(parts, full[f])
				}
			}
			h, _ := newHandlers(t, "{"+strings.Join(parts, ", ")+"}")

			_, err := h.AssessAssignment(t.Context(), task.ContentUnit{Body: "Write an essay"})
			var sv *parse.SchemaViolationError
			if !errors.As(err, &sv) {
				t.Fatalf("AssessAssignment() error = %v, want *SchemaViolationError", err)
			}
		})
	}
}

func TestAssessAssignment_UnparseableDateKeepsRaw(t *testing.T) {
	h, _ := newHandlers(t, `{"kind": "essay", "estimated_effort": 2,
		"time_gate": {"gated": false}, "prerequisites": [], "due_date": "end of term"}`)

	got, err := h.AssessAssignment(t.Context(), task.ContentUnit{Body: "Essay"})
	if err != nil {
		t.Fatalf("AssessAssignment() error = %v", err)
	}
	if got.DueDate != nil || got.DueDateRaw != "end of term" {
		t.Errorf("DueDate = %v, DueDateRaw = %q", got.DueDate, got.DueDateRaw)
	}
	if got.EstimatedEffort != "2" {
		t.Errorf("EstimatedEffort = %q, want 2", got.EstimatedEffort)
	}
}

func TestAssessAssignment_MalformedOutput(t *testing.T) {
	h, _ := newHandlers(t, "I could not find an assignment.")

	_, err := h.AssessAssignment(t.Context(), task.ContentUnit{Body: "?"})
	var me *parse.MalformedOutputError
	if !errors.As(err, &me) {
		t.Fatalf("AssessAssignment() error = %v, want *MalformedOutputError", err)
	}
}

func TestAnalyzeCourse(t *testing.T) {
	h, _ := newHandlers(t, `{"title": "Intro to AI", "description": "Basics",
		"assignments": [{"name": "Essay 1", "due_date": "Nov 8, 2026"}, {"name": "Quiz", "due_date": null}],
		"gated_content": [{"id": 42, "available_at": "2026-12-01"}]}`)

	got, err := h.AnalyzeCourse(t.Context(), task.ContentUnit{Body: "Course page"})
	if err != nil {
		t.Fatalf("AnalyzeCourse() error = %v", err)
	}
	if got.Title != "Intro to AI" || got.Description != "Basics" {
		t.Errorf("Title/Description = %q/%q", got.Title, got.Description)
	}
	if len(got.Assignments) != 2 {
		t.Fatalf("Assignments = %v", got.Assignments)
	}
	if got.Assignments[0].DueDate == nil || got.Assignments[0].DueDate.Month() != time.November {
		t.Errorf("Assignments[0].DueDate = %v", got.Assignments[0].DueDate)
	}
	if got.Assignments[1].DueDate != nil {
		t.Errorf("Assignments[1].DueDate = %v, want nil", got.Assignments[1].DueDate)
	}
	if len(got.GatedContent) != 1 || got.GatedContent[0].ID != "42" {
		t.Errorf("GatedContent = %+v", got.GatedContent)
	}
}

func TestAnalyzeCourse_MissingKeys(t *testing.T) {
	h, _ := newHandlers(t, `{"title": "Only a title"}`)

	_, err := h.AnalyzeCourse(t.Context(), task.ContentUnit{Body: "Course page"})
	var sv *parse.SchemaViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("AnalyzeCourse() error = %v, want *SchemaViolationError", err)
	}
	if len(sv.Violations) != 3 {
		t.Errorf("Violations = %v, want 3", sv.Violations)
	}
}

func TestGenerateResponse(t *testing.T) {
	h, mock := newHandlers(t, "\n  AI ethics matters because...  \n")

	got, err := h.GenerateResponse(t.Context(), "Discuss AI ethics.", "Philosophy 101")
	if err != nil {
		t.Fatalf("GenerateResponse() error = %v", err)
	}
	if got != "AI ethics matters because..." {
		t.Errorf("GenerateResponse() = %q", got)
	}
	content := mock.LastRequest().Messages[0].Content
	if !strings.Contains(content, "Discuss AI ethics.") || !strings.Contains(content, "Philosophy 101") {
		t.Errorf("prompt missing inputs:\n%s", content)
	}
}

func TestGenerateResponse_MissingPrompt(t *testing.T) {
	h, mock := newHandlers(t, "unused")

	_, err := h.GenerateResponse(t.Context(), "", "ctx")
	var mv *prompt.MissingVariableError
	if !errors.As(err, &mv) {
		t.Fatalf("GenerateResponse() error = %v, want *MissingVariableError", err)
	}
	if mock.Calls() != 0 {
		t.Error("completion service should not be called when rendering fails")
	}
}

func TestGenerateResponse_EmptyReply(t *testing.T) {
	h, _ := newHandlers(t, "   ")

	_, err := h.GenerateResponse(t.Context(), "Discuss.", "")
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("GenerateResponse() error = %v, want ErrEmptyResponse", err)
	}
}
