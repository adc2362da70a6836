package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumin/internal/traverse"
)

var (
	traverseCaseSensitive bool
	traverseNoIgnore      bool
	traverseBinary        bool
	traverseMaxDepth      int
)

// traverseCmd lists files under a directory
var traverseCmd = &cobra.Command{
	Use:   "traverse [directory] [pattern]",
	Short: "List files under a directory",
	Long: `Lists the files under the directory, honoring .gitignore rules.

An optional pattern filters the listing: patterns with glob
metacharacters match the relative path, anything else matches as a
substring of the full path.

Example:
  lumin traverse .
  lumin traverse ./src "*.go"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTraverse,
}

func init() {
	traverseCmd.Flags().BoolVar(&traverseCaseSensitive, "case-sensitive", false, "Match pattern case exactly")
	traverseCmd.Flags().BoolVar(&traverseNoIgnore, "no-ignore", false, "Ignore .gitignore rules and include hidden files")
	traverseCmd.Flags().BoolVar(&traverseBinary, "include-binary", false, "Include binary files in the listing")
	traverseCmd.Flags().IntVar(&traverseMaxDepth, "max-depth", 0, "Maximum directory depth (0 uses the configured default)")
}

func runTraverse(cmd *cobra.Command, args []string) error {
	directory := args[0]
	pattern := ""
	if len(args) > 1 {
		pattern = args[1]
	}

	opts := traverse.Options{
		CaseSensitive:    traverseCaseSensitive,
		RespectGitignore: !traverseNoIgnore,
		OnlyTextFiles:    !traverseBinary && !cfg.Traverse.IncludeBinary,
		Pattern:          pattern,
		MaxDepth:         traverseMaxDepth,
		Logger:           logger,
	}
	if !cmd.Flags().Changed("max-depth") {
		opts.MaxDepth = cfg.Search.MaxDepth
	}

	results, err := traverse.Directory(directory, opts)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No files found.")
		return nil
	}

	fmt.Printf("Found %d files:\n", len(results))
	for _, r := range results {
		marker := " "
		if r.IsHidden() {
			marker = "*"
		}
		fmt.Printf("%s %-10s %s\n", marker, r.FileType, r.FilePath)
	}
	return nil
}
