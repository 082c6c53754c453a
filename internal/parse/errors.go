// Package parse extracts structured values from free-form model output.
package parse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoIntegerFound matches every *NoIntegerFoundError via errors.Is.
var ErrNoIntegerFound = errors.New("no integer found")

const rawPreviewLen = 120

// MalformedOutputError is returned when no JSON object can be decoded from a reply.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed output: %v (raw: %q)", e.Err, preview(e.Raw))
	}
	return fmt.Sprintf("malformed output: no JSON object (raw: %q)", preview(e.Raw))
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// NoIntegerFoundError is returned when a reply carries no usable answer ordinal.
type NoIntegerFoundError struct {
	Raw    string
	Reason string
}

func (e *NoIntegerFoundError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "no digits"
	}
	return fmt.Sprintf("no integer found: %s (raw: %q)", reason, preview(e.Raw))
}

func (e *NoIntegerFoundError) Is(target error) bool { return target == ErrNoIntegerFound }

// SchemaViolationError lists the ways a decoded object fails its schema.
type SchemaViolationError struct {
	Schema     string
	Violations []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema %s violated: %s", e.Schema, strings.Join(e.Violations, "; "))
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= rawPreviewLen {
		return s
	}
	return s[:rawPreviewLen] + "..."
}
