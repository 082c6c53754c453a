package resolve

import (
	"context"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-coursework/internal/task"
)

// Unit is one assignment or question to resolve end to end.
type Unit struct {
	ID       string           `json:"id" yaml:"id"`
	Content  task.ContentUnit `json:"content" yaml:",inline"`
	Question *task.Question   `json:"question,omitempty" yaml:"question"`
}

// Fingerprint returns a stable id derived from the unit's content.
func (u Unit) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(u.Content.Body))
	h.Write([]byte{0})
	h.Write([]byte(u.Content.Context))
	if u.Question != nil {
		h.Write([]byte{0})
		h.Write([]byte(u.Question.Text))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(u.Question.Options, "\x1f")))
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

func (u Unit) withID() Unit {
	if strings.TrimSpace(u.ID) == "" {
		u.ID = u.Fingerprint()
	}
	return u
}

// AnswerKind tells free-text answers from option selections.
type AnswerKind string

const (
	AnswerText   AnswerKind = "text"
	AnswerOption AnswerKind = "option"
)

// Answer is what gets submitted for a unit.
type Answer struct {
	Kind AnswerKind `json:"kind"`
	// Text is the generated response, or the chosen option's label.
	Text string `json:"text"`
	// Option is the 1-based selection for AnswerOption.
	Option int `json:"option,omitempty"`
}

// Submission is handed to a Submitter once an answer exists.
type Submission struct {
	UnitID string `json:"unit_id"`
	Answer Answer `json:"answer"`
}

// Submitter delivers answers to the LMS. Implementations report success by
// returning nil; the orchestrator never retries a failed submit.
type Submitter interface {
	Submit(ctx context.Context, s Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, s Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, s Submission) error { return f(ctx, s) }
