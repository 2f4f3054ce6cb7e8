// Package main - Entry point for the standalone option-lattice API server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"option-lattice/api"
	"option-lattice/core/book"
	"option-lattice/core/lattice"
	"option-lattice/internal/config"
	"option-lattice/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "config file (JSON)")
	addr := flag.String("addr", "", "server address (default from config)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatal(err)
	}
	defer logging.Sync()

	pricer := lattice.NewPricer(
		lattice.WithWorkers(cfg.Lattice.Workers),
		lattice.WithParallelThreshold(cfg.Lattice.ParallelThreshold),
		lattice.WithLogger(logging.Named("pricer")),
	)
	server := api.NewServer(api.Options{
		Version:  version,
		Pricer:   pricer,
		Valuer:   book.NewValuer(pricer, cfg.Book.Workers, logging.Named("book")),
		Defaults: cfg.BookDefaults(),
		MaxSteps: cfg.Server.MaxSteps,
		Logger:   logging.Named("api"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("option-lattice API v%s\n", version)
	fmt.Printf("   http://localhost%s\n\n", *addr)

	if err := server.ListenAndServe(ctx, *addr); err != nil {
		log.Fatal(err)
	}
}
