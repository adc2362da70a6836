package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lumin/internal/search"
)

var (
	searchCaseSensitive bool
	searchNoIgnore      bool
	searchMaxDepth      int
	searchOmitContext   int
	searchBefore        int
	searchAfter         int
	searchInclude       []string
	searchExclude       []string
	searchSkip          int
	searchTake          int
)

// searchCmd searches file contents by regex
var searchCmd = &cobra.Command{
	Use:   "search [pattern] [directory]",
	Short: "Search file contents by regular expression",
	Long: `Searches every text file under the directory for the pattern.

Matches print as path:line: content, context lines as path:line- content,
with -- separators between discontinuous runs.

Example:
  lumin search TODO ./src
  lumin search -B 2 -A 2 "fn main" .`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "Match case exactly")
	searchCmd.Flags().BoolVar(&searchNoIgnore, "no-ignore", false, "Ignore .gitignore rules and include hidden files")
	searchCmd.Flags().IntVar(&searchMaxDepth, "max-depth", 0, "Maximum directory depth (0 uses the configured default)")
	searchCmd.Flags().IntVar(&searchOmitContext, "omit-context", 0, "Keep only this many characters around each match")
	searchCmd.Flags().IntVarP(&searchBefore, "before-context", "B", 0, "Lines of context before each match")
	searchCmd.Flags().IntVarP(&searchAfter, "after-context", "A", 0, "Lines of context after each match")
	searchCmd.Flags().StringSliceVar(&searchInclude, "include", nil, "Only search files matching these globs")
	searchCmd.Flags().StringSliceVar(&searchExclude, "exclude", nil, "Skip files matching these globs")
	searchCmd.Flags().IntVar(&searchSkip, "skip", 0, "Skip this many matches")
	searchCmd.Flags().IntVar(&searchTake, "take", 0, "Stop after this many matches")
}

func runSearch(cmd *cobra.Command, args []string) error {
	pattern, directory := args[0], args[1]

	opts := search.Options{
		CaseSensitive:    searchCaseSensitive,
		RespectGitignore: !searchNoIgnore,
		IncludeGlob:      searchInclude,
		ExcludeGlob:      searchExclude,
		MaxDepth:         searchMaxDepth,
		BeforeContext:    searchBefore,
		AfterContext:     searchAfter,
		Workers:          cfg.Search.Workers,
		Logger:           logger,
	}
	if !cmd.Flags().Changed("max-depth") {
		opts.MaxDepth = cfg.Search.MaxDepth
	}
	if cmd.Flags().Changed("omit-context") {
		opts.MatchContentOmitNum = &searchOmitContext
	}
	if cmd.Flags().Changed("skip") {
		opts.Skip = &searchSkip
	}
	if cmd.Flags().Changed("take") {
		opts.Take = &searchTake
	}

	logger.Debug("searching",
		zap.String("pattern", pattern),
		zap.String("directory", directory))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := search.Files(ctx, pattern, directory, opts)
	if err != nil {
		return err
	}

	printSearchResult(result)
	return nil
}

// printSearchResult renders a search result in grep-like form.
func printSearchResult(result *search.Result) {
	if len(result.Lines) == 0 {
		fmt.Println("No matches found.")
		return
	}

	matchCount := 0
	for _, l := range result.Lines {
		if !l.IsContext {
			matchCount++
		}
	}
	fmt.Printf("Found %d matches:\n", matchCount)

	lastFile := ""
	lastLine := 0
	for _, l := range result.Lines {
		if lastFile != "" && (l.FilePath != lastFile || l.LineNumber > lastLine+1) {
			fmt.Println("--")
		}
		lastFile = l.FilePath
		lastLine = l.LineNumber

		sep := ":"
		if l.IsContext {
			sep = "-"
		}
		fmt.Printf("%s:%d%s %s\n", l.FilePath, l.LineNumber, sep, strings.TrimSpace(l.LineContent))
	}
}
