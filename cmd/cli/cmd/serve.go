// Package cmd - serve command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"option-lattice/api"
	"option-lattice/internal/config"
	"option-lattice/internal/logging"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing HTTP API",
	Long: `Start the HTTP API:

  POST /price      price one option
  POST /converge   step-doubling study
  POST /book       value a YAML, JSON or HCL book
  GET  /health
  GET  /version

Examples:
  option-lattice serve
  option-lattice serve --addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server := api.NewServer(api.Options{
		Version:  version,
		Pricer:   newPricer(cfg),
		Valuer:   newValuer(cfg, 0),
		Defaults: cfg.BookDefaults(),
		MaxSteps: cfg.Server.MaxSteps,
		Logger:   logging.Named("api"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "option-lattice API v%s listening on %s\n", version, addr)
	logging.Info("serving", zap.String("addr", addr), zap.Int("max_steps", cfg.Server.MaxSteps))
	return server.ListenAndServe(ctx, addr)
}
