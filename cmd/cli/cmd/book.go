// Package cmd - book command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"option-lattice/core/book"
	"option-lattice/internal/config"
	"option-lattice/internal/logging"
)

var (
	bookFormat  string
	bookWorkers int
	bookStrict  bool
)

// bookCmd represents the book command
var bookCmd = &cobra.Command{
	Use:   "book <file>",
	Short: "Value every position in an option book",
	Long: `Load a book (.hcl, .yaml, .yml or .json), price each distinct option once
and report per-position market values with totals per currency.

Positions that fail to price are reported and left out of the totals.

Examples:
  option-lattice book desk.hcl
  option-lattice book desk.yaml --format markdown
  option-lattice book desk.json --workers 8 --strict`,
	Args: cobra.ExactArgs(1),
	RunE: runBook,
}

func init() {
	bookCmd.Flags().StringVarP(&bookFormat, "format", "f", "", "output format (cli, json, markdown)")
	bookCmd.Flags().IntVarP(&bookWorkers, "workers", "w", 0, "options priced concurrently (default from config)")
	bookCmd.Flags().BoolVar(&bookStrict, "strict", false, "exit non-zero when any position fails to price")
}

func runBook(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	formatter, err := formatterFor(cfg, bookFormat)
	if err != nil {
		return err
	}

	b, err := book.Load(args[0], cfg.BookDefaults())
	if err != nil {
		return err
	}
	logging.Debug("book loaded", zap.String("book", b.Name), zap.Int("positions", len(b.Positions)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	val, err := newValuer(cfg, bookWorkers).Value(ctx, b)
	if err != nil {
		return err
	}
	if err := formatter.RenderValuation(cmd.OutOrStdout(), val); err != nil {
		return err
	}

	if bookStrict && val.Failed > 0 {
		return fmt.Errorf("%d of %d positions failed to price", val.Failed, len(val.Positions))
	}
	return nil
}
