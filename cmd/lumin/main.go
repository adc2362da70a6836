package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lumin/internal/config"
	"lumin/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE, shared by all commands
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lumin",
	Short: "lumin - search and display local files",
	Long: `lumin searches, lists, and displays files on the local filesystem.

Commands:
  search    - search file contents by regex
  traverse  - list files under a directory
  tree      - print the directory structure as JSON
  view      - display a single file with type detection
  watch     - re-run a search whenever files change
  fixture   - generate the test fixtures used by the integration suite`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(cfg.Logging.Level, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "Config file path")

	// Add commands to root
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(traverseCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(fixtureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
