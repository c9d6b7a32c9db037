package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/budgetbook/internal/buildinfo"
)

// DataDirEnv names the environment variable holding the default data dir.
const DataDirEnv = "BUDGETBOOK_DATA_DIR"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dataDir string

	rootCmd := &cobra.Command{
		Use:     "budgetbook",
		Short:   "Categorize bank statements and report spending against budgets",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	defaultDir := os.Getenv(DataDirEnv)
	if defaultDir == "" {
		defaultDir = "."
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "data directory (or set "+DataDirEnv+")")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(&dataDir),
		newImportCommand(&dataDir),
		newReportCommand(&dataDir),
		newMappingsCommand(&dataDir),
	)

	return rootCmd
}
