package submit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

// DryRun accepts every submission without contacting the LMS.
type DryRun struct {
	mu          sync.Mutex
	submissions []resolve.Submission
}

func NewDryRun() *DryRun {
	return &DryRun{}
}

func (d *DryRun) Submit(ctx context.Context, sub resolve.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.submissions = append(d.submissions, sub)
	d.mu.Unlock()

	slog.Info("dry-run submission",
		"unit_id", sub.UnitID,
		"answer_kind", string(sub.Answer.Kind),
		"answer_len", len(sub.Answer.Text),
	)
	return nil
}

// Submissions returns a copy of what was submitted so far.
func (d *DryRun) Submissions() []resolve.Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]resolve.Submission{}, d.submissions...)
}
