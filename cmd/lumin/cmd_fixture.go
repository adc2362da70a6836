package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lumin/internal/fixture"
)

var fixtureDir string

// fixtureCmd groups the test-fixture generators
var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Generate the test fixtures used by the integration suite",
}

// fixtureSetupCmd writes the searchable fixture file
var fixtureSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write the searchable fixture file",
	Long: `Writes test_file.txt into the target directory. The file contains
the marker pattern TEST_PATTERN_123 so a subsequent search can verify
the pipeline end to end.`,
	Args: cobra.NoArgs,
	RunE: runFixtureSetup,
}

// fixtureProcessCmd emits dummy processing records
var fixtureProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Emit dummy processing records",
	Args:  cobra.NoArgs,
	RunE:  runFixtureProcess,
}

func init() {
	fixtureSetupCmd.Flags().StringVar(&fixtureDir, "dir", ".", "Directory to write the fixture file into")

	fixtureCmd.AddCommand(fixtureSetupCmd)
	fixtureCmd.AddCommand(fixtureProcessCmd)
}

func runFixtureSetup(cmd *cobra.Command, args []string) error {
	fmt.Println("Setting up test environment...")

	path, err := fixture.Setup(fixtureDir, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println("Setup complete!")
	return nil
}

func runFixtureProcess(cmd *cobra.Command, args []string) error {
	for _, r := range fixture.Process(logger) {
		fmt.Printf("Processing %s\n", r.Filename)
		out, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		fmt.Printf("Result: %s\n", out)
	}
	return nil
}
