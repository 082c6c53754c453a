package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-coursework/internal/content"
	"github.com/p-n-ai/pai-coursework/internal/report"
	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

var (
	resolveUnitsDir    string
	resolveConcurrency int
	resolveRate        float64
	resolveDryRun      bool
	resolveReport      string
	resolveJSON        bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve every unit in a directory",
	Long: `Loads unit files (*.yaml) from a directory and runs each unit through
classification, answer generation and submission. Units run concurrently;
one failing unit does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveUnitsDir, "units", "u", "", "directory of unit files")
	resolveCmd.Flags().IntVarP(&resolveConcurrency, "concurrency", "c", 0, "units in flight at once (default PILOT_PIPELINE_CONCURRENCY)")
	resolveCmd.Flags().Float64Var(&resolveRate, "rate", 0, "maximum units started per second (0 = unlimited)")
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "record answers without submitting them")
	resolveCmd.Flags().StringVar(&resolveReport, "report", "", "write an XLSX report to this path")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output outcomes as JSON")
	_ = resolveCmd.MarkFlagRequired("units")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if resolveDryRun {
		cfg.Submit.DryRun = true
	}
	concurrency := cfg.Pipeline.Concurrency
	if resolveConcurrency > 0 {
		concurrency = resolveConcurrency
	}

	loader, err := content.NewLoader(resolveUnitsDir)
	if err != nil {
		return err
	}
	units := loader.Units()
	if len(units) == 0 {
		return fmt.Errorf("no units found in %s", resolveUnitsDir)
	}

	ctx := cmd.Context()
	a, cleanup, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcomes, batchErr := RunBatch(ctx, a.Orchestrator, units, BatchOptions{
		Concurrency: concurrency,
		Rate:        resolveRate,
		UnitTimeout: cfg.Pipeline.UnitTimeout,
	})

	if resolveReport != "" {
		if err := writeReport(resolveReport, outcomes); err != nil {
			return err
		}
	}

	if resolveJSON {
		if err := printJSON(cmd.OutOrStdout(), outcomes); err != nil {
			return err
		}
	} else {
		printOutcomes(cmd.OutOrStdout(), outcomes)
	}

	if batchErr != nil {
		return fmt.Errorf("batch interrupted: %w", batchErr)
	}
	if failed := countErrored(outcomes); failed > 0 {
		return fmt.Errorf("%d of %d units failed", failed, len(outcomes))
	}
	return nil
}

func writeReport(path string, outcomes []resolve.Outcome) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return report.WriteXLSX(f, outcomes)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func printOutcomes(w io.Writer, outcomes []resolve.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tSTATE\tKIND\tRESULT")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.UnitID, o.State, o.Kind, summary(o))
	}
	_ = tw.Flush()
}

func summary(o resolve.Outcome) string {
	switch {
	case o.State == resolve.StateErrored:
		return fmt.Sprintf("%s at %s: %s", o.ErrorKind, o.FailedStage, o.Err)
	case o.Answer == nil:
		return ""
	case o.Answer.Kind == resolve.AnswerOption:
		return fmt.Sprintf("option %d (%s)", o.Answer.Option, o.Answer.Text)
	default:
		return fmt.Sprintf("%d chars", len(o.Answer.Text))
	}
}

func countErrored(outcomes []resolve.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.State == resolve.StateErrored {
			n++
		}
	}
	return n
}
