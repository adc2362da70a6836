package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"lumin/internal/tree"
)

var (
	treeCaseSensitive bool
	treeNoIgnore      bool
	treeMaxDepth      int
)

// treeCmd prints the directory structure as JSON
var treeCmd = &cobra.Command{
	Use:   "tree [directory]",
	Short: "Print the directory structure as JSON",
	Long: `Walks the directory and prints one JSON node per non-empty
directory, each listing its files and subdirectories.

Example:
  lumin tree ./src`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().BoolVar(&treeCaseSensitive, "case-sensitive", false, "Reserved for filtering parity")
	treeCmd.Flags().BoolVar(&treeNoIgnore, "no-ignore", false, "Ignore .gitignore rules and include hidden files")
	treeCmd.Flags().IntVar(&treeMaxDepth, "max-depth", 0, "Maximum directory depth (0 uses the configured default)")
}

func runTree(cmd *cobra.Command, args []string) error {
	opts := tree.Options{
		CaseSensitive:    treeCaseSensitive,
		RespectGitignore: !treeNoIgnore,
		MaxDepth:         treeMaxDepth,
		Logger:           logger,
	}
	if !cmd.Flags().Changed("max-depth") {
		opts.MaxDepth = cfg.Search.MaxDepth
	}

	results, err := tree.Generate(args[0], opts)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No directories found.")
		return nil
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
