package task

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
)

type assessmentWire struct {
	Kind            string `json:"kind"`
	EstimatedEffort any    `json:"estimated_effort"`
	TimeGate        struct {
		Gated       bool    `json:"gated"`
		AvailableAt *string `json:"available_at"`
	} `json:"time_gate"`
	Prerequisites []string `json:"prerequisites"`
	DueDate       *string  `json:"due_date"`
}

// AssessAssignment classifies an assignment and extracts its effort, time
// gate, prerequisites and due date. A reply missing any of those fields
// fails with *parse.SchemaViolationError.
func (h *Handlers) AssessAssignment(ctx context.Context, unit ContentUnit) (Assessment, error) {
	var wire assessmentWire
	err := h.askJSON(ctx, prompt.TemplateAssignmentAssessment,
		map[string]string{
			prompt.VarAssignmentContent: unit.Body,
			prompt.VarCourseContext:     unit.Context,
		},
		ai.Params{Task: ai.TaskAssessment},
		assessmentSchema, &wire)
	if err != nil {
		return Assessment{}, fmt.Errorf("assess assignment: %w", err)
	}

	gateRaw := deref(wire.TimeGate.AvailableAt)
	dueRaw := deref(wire.DueDate)
	out := Assessment{
		Kind:            ParseAssignmentKind(wire.Kind),
		EstimatedEffort: effortString(wire.EstimatedEffort),
		TimeGate: TimeGate{
			Gated:          wire.TimeGate.Gated,
			AvailableAt:    parseDate(gateRaw),
			AvailableAtRaw: gateRaw,
		},
		Prerequisites: wire.Prerequisites,
		DueDate:       parseDate(dueRaw),
		DueDateRaw:    dueRaw,
	}
	if out.Prerequisites == nil {
		out.Prerequisites = []string{}
	}

	slog.Debug("assignment assessed",
		"kind", string(out.Kind),
		"label", wire.Kind,
		"gated", out.TimeGate.Gated,
	)
	return out, nil
}

func effortString(v any) string {
	switch e := v.(type) {
	case string:
		return e
	case float64:
		return strconv.FormatFloat(e, 'f', -1, 64)
	default:
		return ""
	}
}
