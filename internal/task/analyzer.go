package task

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
)

type courseAnalysisWire struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignments []struct {
		Name    string  `json:"name"`
		DueDate *string `json:"due_date"`
	} `json:"assignments"`
	GatedContent []struct {
		ID          any     `json:"id"`
		AvailableAt *string `json:"available_at"`
	} `json:"gated_content"`
}

// AnalyzeCourse extracts the title, description, assignment due dates and
// time-gated items from course content.
func (h *Handlers) AnalyzeCourse(ctx context.Context, unit ContentUnit) (CourseAnalysis, error) {
	var wire courseAnalysisWire
	err := h.askJSON(ctx, prompt.TemplateCourseAnalysis,
		map[string]string{
			prompt.VarCourseContent: unit.Body,
			prompt.VarCourseContext: unit.Context,
		},
		ai.Params{Task: ai.TaskAnalysis},
		courseAnalysisSchema, &wire)
	if err != nil {
		return CourseAnalysis{}, fmt.Errorf("analyze course: %w", err)
	}

	out := CourseAnalysis{
		Title:        wire.Title,
		Description:  wire.Description,
		Assignments:  make([]AssignmentDue, 0, len(wire.Assignments)),
		GatedContent: make([]GatedItem, 0, len(wire.GatedContent)),
	}
	for _, a := range wire.Assignments {
		raw := deref(a.DueDate)
		out.Assignments = append(out.Assignments, AssignmentDue{
			Name:       a.Name,
			DueDate:    parseDate(raw),
			DueDateRaw: raw,
		})
	}
	for _, g := range wire.GatedContent {
		raw := deref(g.AvailableAt)
		out.GatedContent = append(out.GatedContent, GatedItem{
			ID:             idString(g.ID),
			AvailableAt:    parseDate(raw),
			AvailableAtRaw: raw,
		})
	}

	slog.Debug("course analyzed",
		"title", out.Title,
		"assignments", len(out.Assignments),
		"gated", len(out.GatedContent),
	)
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
