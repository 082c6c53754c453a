// Package report exports resolution outcomes as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

const (
	outcomeSheet    = "Outcomes"
	transitionSheet = "Transitions"
)

var outcomeHeader = []any{
	"Run ID", "Unit ID", "State", "Kind", "Answer", "Failed Stage",
	"Error Kind", "Error", "Started", "Finished", "Duration (s)",
}

var transitionHeader = []any{"Run ID", "Unit ID", "From", "To", "At", "Error"}

// WriteXLSX writes one row per outcome and one row per transition to w.
// Errored units never show an answer.
func WriteXLSX(w io.Writer, outcomes []resolve.Outcome) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outcomeSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(transitionSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeRows(f, outcomeSheet, outcomeHeader, bold, outcomeRows(outcomes)); err != nil {
		return err
	}
	if err := writeRows(f, transitionSheet, transitionHeader, bold, transitionRows(outcomes)); err != nil {
		return err
	}

	if err := f.SetColWidth(outcomeSheet, "E", "E", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(outcomeSheet, "H", "H", 40); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []any, headerStyle int, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("%s panes: %w", sheet, err)
	}
	return nil
}

func outcomeRows(outcomes []resolve.Outcome) [][]any {
	rows := make([][]any, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, []any{
			o.RunID.String(),
			o.UnitID,
			string(o.State),
			string(o.Kind),
			answerText(o),
			string(o.FailedStage),
			o.ErrorKind,
			o.Err,
			timestamp(o.StartedAt),
			timestamp(o.FinishedAt),
			duration(o),
		})
	}
	return rows
}

func transitionRows(outcomes []resolve.Outcome) [][]any {
	var rows [][]any
	for _, o := range outcomes {
		for _, t := range o.Transitions {
			rows = append(rows, []any{
				t.RunID.String(),
				t.UnitID,
				string(t.From),
				string(t.To),
				timestamp(t.At),
				t.Err,
			})
		}
	}
	return rows
}

func answerText(o resolve.Outcome) string {
	if o.State != resolve.StateDone || o.Answer == nil {
		return ""
	}
	if o.Answer.Kind == resolve.AnswerOption {
		return fmt.Sprintf("%d. %s", o.Answer.Option, o.Answer.Text)
	}
	return o.Answer.Text
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func duration(o resolve.Outcome) any {
	if o.StartedAt.IsZero() || o.FinishedAt.IsZero() {
		return ""
	}
	return o.FinishedAt.Sub(o.StartedAt).Seconds()
}
