package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const fedgraphVersion = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fedgraph",
	Run: func(cmd *cobra.Command, args []string) {
		println("fedgraph " + fedgraphVersion)
	},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{Use: "fedgraph"}
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newComposeCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
