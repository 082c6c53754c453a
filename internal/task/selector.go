package task

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/p-n-ai/pai-coursework/internal/ai"
	"github.com/p-n-ai/pai-coursework/internal/parse"
	"github.com/p-n-ai/pai-coursework/internal/prompt"
)

// OutOfRangeAnswerError is returned when the model picks an option number
// outside [1, Options].
type OutOfRangeAnswerError struct {
	Answer  int
	Options int
}

func (e *OutOfRangeAnswerError) Error() string {
	return fmt.Sprintf("answer %d out of range [1, %d]", e.Answer, e.Options)
}

// SelectOption asks the model to pick one of q's options and returns the
// 1-based ordinal. The result is always within [1, len(q.Options)].
func (h *Handlers) SelectOption(ctx context.Context, q Question, courseContext string) (int, error) {
	if err := q.Validate(); err != nil {
		return 0, fmt.Errorf("select option: %w", err)
	}

	raw, err := h.ask(ctx, prompt.TemplateMultipleChoice, map[string]string{
		prompt.VarQuestionText:  q.Text,
		prompt.VarOptions:       FormatOptions(q.Options),
		prompt.VarCourseContext: courseContext,
	}, ai.Params{Task: ai.TaskSelection})
	if err != nil {
		return 0, fmt.Errorf("select option: %w", err)
	}

	parseAnswer := parse.LeadingInteger
	if h.strictAnswers {
		parseAnswer = parse.StrictLeadingInteger
	}
	n, err := parseAnswer(raw)
	if err != nil {
		return 0, fmt.Errorf("select option: %w", err)
	}
	if n < 1 || n > len(q.Options) {
		return 0, fmt.Errorf("select option: %w", &OutOfRangeAnswerError{Answer: n, Options: len(q.Options)})
	}

	slog.Debug("option selected", "answer", n, "options", len(q.Options))
	return n, nil
}

// FormatOptions numbers options from 1, one per line.
func FormatOptions(options []string) string {
	var b strings.Builder
	for i, opt := range options {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(opt)
	}
	return b.String()
}
