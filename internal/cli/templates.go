package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-coursework/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the prompt templates and their versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := prompt.NewBuilder()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tVERSION\tREQUIRED\tOPTIONAL")
		for _, t := range b.Templates() {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t.ID, t.Version,
				strings.Join(t.Required, ","), strings.Join(t.Optional, ","))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
