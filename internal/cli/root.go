package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "still",
	Short: "Answer freshness for Q&A forums",
	Long:  "Still tracks how trustworthy forum answers remain over time: answers decay through a freshness state machine unless the community re-verifies them.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recalcCmd)
}
