// Package cmd - converge command
package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"option-lattice/core/book"
	"option-lattice/core/output"
	"option-lattice/internal/config"
)

var (
	convergeFlags     requestFlags
	convergeFrom      int
	convergeDoublings int
	convergeFormat    string
)

// convergeCmd represents the converge command
var convergeCmd = &cobra.Command{
	Use:   "converge",
	Short: "Show how the value settles as the step count doubles",
	Long: `Price the same option at N, 2N, 4N, ... steps and print each value with
its change from the previous run.

Examples:
  option-lattice converge
  option-lattice converge --type call --from 25 --doublings 6`,
	Args: cobra.NoArgs,
	RunE: runConverge,
}

func init() {
	convergeFlags.bind(convergeCmd)
	convergeCmd.Flags().IntVar(&convergeFrom, "from", 0, "first step count (default --steps)")
	convergeCmd.Flags().IntVar(&convergeDoublings, "doublings", 4, "number of times to double the step count")
	convergeCmd.Flags().StringVarP(&convergeFormat, "format", "f", "", "output format (cli, json, markdown)")
}

func runConverge(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg := config.Get()

	req, err := convergeFlags.request(cmd, cfg)
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cfg, convergeFormat)
	if err != nil {
		return err
	}

	from := convergeFrom
	if from == 0 {
		from = req.Steps
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := newPricer(cfg).Converge(ctx, req, from, convergeDoublings)
	if err != nil {
		return err
	}

	return formatter.RenderConvergence(cmd.OutOrStdout(), &output.Convergence{
		Request:  req.WithSteps(from),
		Points:   points,
		Metadata: output.NewMetadata(start, book.Fingerprint(req), version),
	})
}
