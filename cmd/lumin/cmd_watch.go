package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lumin/internal/search"
	"lumin/internal/watch"
)

var (
	watchCaseSensitive bool
	watchNoIgnore      bool
	watchMaxDepth      int
	watchDebounce      time.Duration
)

// watchCmd re-runs a search whenever files change
var watchCmd = &cobra.Command{
	Use:   "watch [pattern] [directory]",
	Short: "Re-run a search whenever files change",
	Long: `Runs the search once, then watches the directory and re-runs it
each time the files settle after a change. Interrupt to stop.

Example:
  lumin watch TODO ./src`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchCaseSensitive, "case-sensitive", false, "Match case exactly")
	watchCmd.Flags().BoolVar(&watchNoIgnore, "no-ignore", false, "Ignore .gitignore rules and include hidden files")
	watchCmd.Flags().IntVar(&watchMaxDepth, "max-depth", 0, "Maximum directory depth (0 uses the configured default)")
	watchCmd.Flags().DurationVar(&watchDebounce, "interval", 0, "Debounce interval (0 uses the configured default)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	pattern, directory := args[0], args[1]

	searchOpts := search.Options{
		CaseSensitive:    watchCaseSensitive,
		RespectGitignore: !watchNoIgnore,
		MaxDepth:         watchMaxDepth,
		Workers:          cfg.Search.Workers,
		Logger:           logger,
	}
	if !cmd.Flags().Changed("max-depth") {
		searchOpts.MaxDepth = cfg.Search.MaxDepth
	}

	debounce := watchDebounce
	if debounce <= 0 {
		var err error
		debounce, err = time.ParseDuration(cfg.Watch.Debounce)
		if err != nil {
			return fmt.Errorf("invalid watch.debounce in config: %w", err)
		}
	}

	w, err := watch.New(pattern, directory, func(r *search.Result) {
		fmt.Printf("--- %s ---\n", time.Now().Format(time.TimeOnly))
		printSearchResult(r)
	}, watch.Options{
		Debounce: debounce,
		Search:   searchOpts,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	stats := w.GetStats()
	logger.Info("watch finished",
		zap.Int("events", stats.EventsSeen),
		zap.Int("searches", stats.SearchesRun))
	return nil
}
