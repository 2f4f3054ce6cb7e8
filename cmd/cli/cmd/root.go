// Package cmd provides the CLI commands for option-lattice.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"option-lattice/core/book"
	"option-lattice/core/lattice"
	"option-lattice/core/output"
	"option-lattice/internal/config"
	apierrors "option-lattice/internal/errors"
	"option-lattice/internal/logging"
)

// version is overridden at build time with -ldflags "-X option-lattice/cmd/cli/cmd.version=..."
var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "option-lattice",
	Short: "Price American options on a binomial lattice",
	Long: `option-lattice prices American calls and puts with a recombining
binomial lattice, including a discrete dividend adjustment.

Prices are deterministic: the same inputs give the same value on every run.

Examples:
  option-lattice price
  option-lattice price --type call --underlying 100 --strike 95 --steps 500
  option-lattice converge --from 50 --doublings 5
  option-lattice book desk.hcl --format markdown
  option-lattice watch desk.yaml --cron "0 */5 * * * *"
  option-lattice serve --addr :8080`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.option-lattice.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(convergeCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", apierrors.Config("cannot load "+path, err))
		os.Exit(1)
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	if verbose {
		_ = logging.SetLevel("debug")
	}
}

// configPath is --config, or the per-user default
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".option-lattice.json"
	}
	return filepath.Join(home, ".option-lattice.json")
}

// newPricer builds a pricer from the lattice settings
func newPricer(cfg *config.Config) *lattice.Pricer {
	return lattice.NewPricer(
		lattice.WithWorkers(cfg.Lattice.Workers),
		lattice.WithParallelThreshold(cfg.Lattice.ParallelThreshold),
		lattice.WithLogger(logging.Named("pricer")),
	)
}

// newValuer builds a book valuer; workers overrides the configured count when positive
func newValuer(cfg *config.Config, workers int) *book.Valuer {
	if workers <= 0 {
		workers = cfg.Book.Workers
	}
	return book.NewValuer(newPricer(cfg), workers, logging.Named("book"))
}

// formatterFor resolves --format, falling back to the configured default
func formatterFor(cfg *config.Config, flag string) (output.Formatter, error) {
	name := flag
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	registry := output.NewRegistry(output.Options{
		Precision: cfg.Output.Precision,
		NoColor:   cfg.Output.NoColor || os.Getenv("NO_COLOR") != "",
	})
	f, ok := registry.Get(format)
	if !ok {
		return nil, fmt.Errorf("no formatter for %q", format)
	}
	return f, nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "option-lattice version %s\n", version)
	},
}
