package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
)

// GenerateResponse writes a free-text answer to an assignment prompt. The
// text is returned in full.
func (h *Handlers) GenerateResponse(ctx context.Context, assignmentPrompt, courseContext string) (string, error) {
	raw, err := h.ask(ctx, prompt.TemplateAssignmentResponse, map[string]string{
		prompt.VarAssignmentPrompt: assignmentPrompt,
		prompt.VarCourseContext:    courseContext,
	}, ai.Params{Task: ai.TaskResponse})
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	return strings.TrimSpace(raw), nil
}
