package task

import "github.com/p-n-ai/pai-coursework/internal/parse"

var assessmentSchema = parse.MustCompileSchema("assessment", `{
  "type": "object",
  "required": ["kind", "estimated_effort", "time_gate", "prerequisites", "due_date"],
  "properties": {
    "kind": {"type": "string", "minLength": 1},
    "estimated_effort": {"type": ["string", "number"]},
    "time_gate": {
      "type": "object",
      "required": ["gated"],
      "properties": {
        "gated": {"type": "boolean"},
        "available_at": {"type": ["string", "null"]}
      }
    },
    "prerequisites": {"type": "array", "items": {"type": "string"}},
    "due_date": {"type": ["string", "null"]}
  }
}`)

var courseAnalysisSchema = parse.MustCompileSchema("course_analysis", `{
  "type": "object",
  "required": ["title", "description", "assignments", "gated_content"],
  "properties": {
    "title": {"type": "string"},
    "description": {"type": "string"},
    "assignments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "due_date": {"type": ["string", "null"]}
        }
      }
    },
    "gated_content": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": ["string", "number"]},
          "available_at": {"type": ["string", "null"]}
        }
      }
    }
  }
}`)
