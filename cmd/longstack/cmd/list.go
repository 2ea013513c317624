package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/longstack/internal/scenario"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the demonstration scenarios.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, s := range scenario.All() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", s.Name, s.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
