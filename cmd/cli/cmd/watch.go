// Package cmd - watch command
package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"option-lattice/core/book"
	"option-lattice/core/schedule"
	"option-lattice/internal/config"
	"option-lattice/internal/logging"
)

var (
	watchCron    string
	watchFormat  string
	watchWorkers int
	watchRunNow  bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <file>...",
	Short: "Revalue books on a cron schedule",
	Long: `Revalue one or more books on a schedule until interrupted. Each run
re-reads the book file, so edits are picked up without a restart.

The cron spec has a leading seconds field.

Examples:
  option-lattice watch desk.hcl
  option-lattice watch desk.hcl hedges.yaml --cron "0 */5 * * * *"
  option-lattice watch desk.yaml --cron "@every 30s" --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchCron, "cron", "", "cron spec with seconds (default from config)")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "output format (cli, json, markdown)")
	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", 0, "options priced concurrently (default from config)")
	watchCmd.Flags().BoolVar(&watchRunNow, "run-now", true, "value every book once before the first tick")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	formatter, err := formatterFor(cfg, watchFormat)
	if err != nil {
		return err
	}
	spec := watchCron
	if spec == "" {
		spec = cfg.Schedule.Cron
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs for different books may finish together
	var mu sync.Mutex
	out := cmd.OutOrStdout()
	sink := func(v *book.Valuation) {
		mu.Lock()
		defer mu.Unlock()
		if err := formatter.RenderValuation(out, v); err != nil {
			logging.Error("render valuation", zap.Error(err))
		}
	}

	s := schedule.New(ctx, newValuer(cfg, watchWorkers), cfg.BookDefaults(), sink, logging.Named("schedule"))
	for _, path := range args {
		if _, err := s.Add(spec, path); err != nil {
			return err
		}
	}

	if watchRunNow {
		for _, path := range args {
			// Failures are logged by the scheduler; keep watching
			_, _ = s.RunNow(path)
		}
	}

	logger := logging.With(zap.String("cron", spec), zap.Int("books", len(args)))
	s.Start()
	for _, e := range s.Entries() {
		logger.Info("next run", zap.String("book", e.Book), zap.Time("at", e.Next))
	}

	<-ctx.Done()
	s.Stop()

	runs, fails := s.Stats()
	logger.Info("watch stopped", zap.Int("runs", runs), zap.Int("failed", fails))
	return nil
}
