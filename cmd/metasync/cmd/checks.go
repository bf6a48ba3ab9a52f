package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civicdata/metasync/pkg/checks"
)

// checksCmd represents the checks command.
var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List available consistency checks",
	Long:  `Checks lists every registered consistency check in execution order.`,
	Run: func(_ *cobra.Command, _ []string) {
		for _, check := range checks.All() {
			fmt.Printf("%-20s %s\n", check.Name(), check.Title())
			fmt.Printf("%20s %s\n", "", check.Description())
		}
	},
}

func init() {
	rootCmd.AddCommand(checksCmd)
}
