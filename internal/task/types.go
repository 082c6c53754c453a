// Package task implements the four coursework task handlers. Each handler
// renders a prompt, calls the completion client and parses the reply into a
// typed result.
package task

import (
	"errors"
	"strings"
	"time"
)

// ErrNoOptions is returned for a multiple-choice question without options.
var ErrNoOptions = errors.New("question has no options")

// ContentUnit is the text the pipeline analyzes, with optional surrounding
// course context.
type ContentUnit struct {
	Body    string `json:"body" yaml:"body"`
	Context string `json:"context,omitempty" yaml:"context"`
}

// Question is a multiple-choice question. Options are stored 0-based and
// answered 1-based.
type Question struct {
	Text    string   `json:"text" yaml:"text"`
	Options []string `json:"options" yaml:"options"`
}

// Validate reports ErrNoOptions when the question cannot be answered.
func (q Question) Validate() error {
	if len(q.Options) == 0 {
		return ErrNoOptions
	}
	return nil
}

// Option returns the text of the 1-based option n.
func (q Question) Option(n int) (string, bool) {
	if n < 1 || n > len(q.Options) {
		return "", false
	}
	return q.Options[n-1], true
}

// AssignmentKind classifies an assignment.
type AssignmentKind string

const (
	KindEssay          AssignmentKind = "essay"
	KindMultipleChoice AssignmentKind = "multiple-choice"
	KindFileUpload     AssignmentKind = "file-upload"
	KindOther          AssignmentKind = "other"
)

var kindAliases = map[string]AssignmentKind{
	"essay":           KindEssay,
	"written":         KindEssay,
	"short answer":    KindEssay,
	"multiple choice": KindMultipleChoice,
	"quiz":            KindMultipleChoice,
	"mcq":             KindMultipleChoice,
	"file upload":     KindFileUpload,
	"upload":          KindFileUpload,
	"file":            KindFileUpload,
	"other":           KindOther,
}

// ParseAssignmentKind maps a model-supplied label onto a known kind.
// Case, hyphens, underscores and repeated spaces are ignored; unknown labels
// become KindOther.
func ParseAssignmentKind(label string) AssignmentKind {
	s := strings.ToLower(label)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	if k, ok := kindAliases[s]; ok {
		return k
	}
	return KindOther
}

// TimeGate describes whether an assignment is locked and until when.
type TimeGate struct {
	Gated       bool       `json:"gated"`
	AvailableAt *time.Time `json:"available_at,omitempty"`
	// AvailableAtRaw keeps the model's text when it is not a recognizable date.
	AvailableAtRaw string `json:"available_at_raw,omitempty"`
}

// Assessment is the Assignment Assessor's result.
type Assessment struct {
	Kind            AssignmentKind `json:"kind"`
	EstimatedEffort string         `json:"estimated_effort"`
	TimeGate        TimeGate       `json:"time_gate"`
	Prerequisites   []string       `json:"prerequisites"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	DueDateRaw      string         `json:"due_date_raw,omitempty"`
}

// AssignmentDue pairs an assignment name with its due date.
type AssignmentDue struct {
	Name       string     `json:"name"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	DueDateRaw string     `json:"due_date_raw,omitempty"`
}

// GatedItem is content that becomes available at a later time.
type GatedItem struct {
	ID             string     `json:"id"`
	AvailableAt    *time.Time `json:"available_at,omitempty"`
	AvailableAtRaw string     `json:"available_at_raw,omitempty"`
}

// CourseAnalysis is the Course-Content Analyzer's result.
type CourseAnalysis struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Assignments  []AssignmentDue `json:"assignments"`
	GatedContent []GatedItem     `json:"gated_content"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// parseDate returns nil for absent or unrecognized dates; the caller keeps
// the raw text alongside.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
