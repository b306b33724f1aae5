package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/hftapi"
	"hft-ui-go/internal/logger"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Commands print tables to stdout; keep the log quiet unless asked.
	if os.Getenv("LOGGER_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &App{
		client: hftapi.NewClient(&cfg.API, log),
		cfg:    &cfg,
		out:    os.Stdout,
	}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
