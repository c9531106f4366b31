package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bibliafides/backend/internal/logger"
)

var (
	verbose bool
	log     = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "fidesctl",
	Short: "Operator tool for the Biblia Fides backend",
	Long: `fidesctl runs single pieces of the Biblia Fides pipeline from a terminal.

Configuration is read from the environment (and .env when present), the same
variables the API server uses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if !verbose {
			return nil
		}
		l, err := logger.New("dev")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(askCmd, chapterCmd, migrateCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
