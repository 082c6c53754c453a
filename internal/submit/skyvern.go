// Package submit delivers resolved answers to the LMS.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

const defaultSkyvernURL = "http://localhost:8000"

// SkyvernConfig configures the Skyvern submitter.
type SkyvernConfig struct {
	BaseURL   string
	APIKey    string
	TargetURL string // LMS page the browser agent starts from
	// PollInterval, when > 0, makes Submit wait for the browser task to finish.
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Skyvern submits answers by creating Skyvern browser-automation tasks.
type Skyvern struct {
	baseURL      string
	apiKey       string
	targetURL    string
	pollInterval time.Duration
	client       *http.Client
}

// ErrNoTaskID is returned when polling is enabled but Skyvern accepted the
// task without an id to poll.
var ErrNoTaskID = errors.New("skyvern returned no task id")

// TaskError reports a Skyvern task that finished without completing.
type TaskError struct {
	TaskID string
	Status string
	Reason string
}

func (e *TaskError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("skyvern task %s %s: %s", e.TaskID, e.Status, e.Reason)
	}
	return fmt.Sprintf("skyvern task %s %s", e.TaskID, e.Status)
}

// NewSkyvern creates a Skyvern submitter.
func NewSkyvern(cfg SkyvernConfig) *Skyvern {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultSkyvernURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Skyvern{
		baseURL:      base,
		apiKey:       cfg.APIKey,
		targetURL:    cfg.TargetURL,
		pollInterval: cfg.PollInterval,
		client:       client,
	}
}

type skyvernTaskRequest struct {
	URL               string         `json:"url"`
	NavigationGoal    string         `json:"navigation_goal"`
	NavigationPayload map[string]any `json:"navigation_payload"`
}

// SkyvernTask is the task state returned by the Skyvern API.
type SkyvernTask struct {
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
}

// Submit creates a browser task that enters the answer and submits the form.
func (s *Skyvern) Submit(ctx context.Context, sub resolve.Submission) error {
	body, err := json.Marshal(skyvernTaskRequest{
		URL:               s.targetURL,
		NavigationGoal:    navigationGoal(sub),
		NavigationPayload: navigationPayload(sub),
	})
	if err != nil {
		return fmt.Errorf("marshal skyvern task: %w", err)
	}

	var created SkyvernTask
	if err := s.do(ctx, http.MethodPost, "/api/v1/tasks", body, &created); err != nil {
		return fmt.Errorf("create skyvern task: %w", err)
	}
	slog.Info("skyvern task created", "unit_id", sub.UnitID, "task_id", created.TaskID)

	if s.pollInterval <= 0 {
		return nil
	}
	if created.TaskID == "" {
		return fmt.Errorf("wait for skyvern task: %w", ErrNoTaskID)
	}
	return s.wait(ctx, created.TaskID)
}

func (s *Skyvern) wait(ctx context.Context, taskID string) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for skyvern task %s: %w", taskID, ctx.Err())
		case <-ticker.C:
		}

		st, err := s.TaskStatus(ctx, taskID)
		if err != nil {
			return err
		}
		switch st.Status {
		case "completed":
			return nil
		case "failed", "terminated", "canceled", "timed_out":
			return &TaskError{TaskID: taskID, Status: st.Status, Reason: st.FailureReason}
		}
		slog.Debug("skyvern task pending", "task_id", taskID, "status", st.Status)
	}
}

// TaskStatus fetches the current state of a Skyvern task.
func (s *Skyvern) TaskStatus(ctx context.Context, taskID string) (SkyvernTask, error) {
	var st SkyvernTask
	if err := s.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID), nil, &st); err != nil {
		return st, fmt.Errorf("skyvern task status: %w", err)
	}
	return st, nil
}

// HealthCheck calls the Skyvern status endpoint.
func (s *Skyvern) HealthCheck(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/api/v1/status", nil, nil); err != nil {
		return fmt.Errorf("skyvern status: %w", err)
	}
	return nil
}

func (s *Skyvern) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("skyvern returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func navigationGoal(sub resolve.Submission) string {
	if sub.Answer.Kind == resolve.AnswerOption {
		return fmt.Sprintf(
			"Open the question for unit %s, select option %d (%q) and submit the answer. "+
				"The task is complete once the submission is confirmed.",
			sub.UnitID, sub.Answer.Option, sub.Answer.Text)
	}
	return fmt.Sprintf(
		"Open the assignment for unit %s, enter answer_text from the payload into the response field "+
			"and submit it. The task is complete once the submission is confirmed.",
		sub.UnitID)
}

func navigationPayload(sub resolve.Submission) map[string]any {
	payload := map[string]any{
		"unit_id":     sub.UnitID,
		"answer_kind": string(sub.Answer.Kind),
		"answer_text": sub.Answer.Text,
	}
	if sub.Answer.Kind == resolve.AnswerOption {
		payload["option"] = sub.Answer.Option
	}
	return payload
}
