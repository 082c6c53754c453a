package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-coursework/internal/content"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Extract title, assignments and gated content from course content",
	Long: `Reads course content from FILE and prints the extracted course analysis
as JSON. YAML unit files contribute their first unit; any other file is
read as plain text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := content.ReadContent(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, cleanup, err := setup(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		analysis, err := a.Tasks.AnalyzeCourse(cmd.Context(), unit)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", args[0], err)
		}
		return printJSON(cmd.OutOrStdout(), analysis)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
