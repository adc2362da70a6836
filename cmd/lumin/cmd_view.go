package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lumin/internal/view"
)

var (
	viewMaxSize  int64
	viewLineFrom int
	viewLineTo   int
)

// viewCmd displays a single file
var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Display a single file with type detection",
	Long: `Prints a text file as path:line:content lines. Binary and image
files print a one-line description instead of their contents.

Example:
  lumin view ./README.md
  lumin view --line-from 10 --line-to 20 ./main.go`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().Int64Var(&viewMaxSize, "max-size", 0, "Maximum file size in bytes (0 uses the configured default)")
	viewCmd.Flags().IntVar(&viewLineFrom, "line-from", 0, "First line to display (1-based, inclusive)")
	viewCmd.Flags().IntVar(&viewLineTo, "line-to", 0, "Last line to display (1-based, inclusive)")
}

func runView(cmd *cobra.Command, args []string) error {
	opts := view.Options{}

	maxSize := cfg.View.MaxSizeBytes
	if cmd.Flags().Changed("max-size") {
		maxSize = viewMaxSize
	}
	if maxSize > 0 {
		opts.MaxSize = &maxSize
	}
	if cmd.Flags().Changed("line-from") {
		opts.LineFrom = &viewLineFrom
	}
	if cmd.Flags().Changed("line-to") {
		opts.LineTo = &viewLineTo
	}

	fv, err := view.File(args[0], opts)
	if err != nil {
		return err
	}

	if fv.Contents.Type == view.ContentsText && fv.Contents.Content != nil {
		for _, l := range fv.Contents.Content.LineContents {
			fmt.Printf("%s:%d:%s\n", fv.FilePath, l.LineNumber, l.Line)
		}
		return nil
	}

	fmt.Printf("%s: %s\n", fv.FilePath, fv.Contents.Message)
	return nil
}
