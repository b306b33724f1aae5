package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hft-ui-go/internal/config"
	"hft-ui-go/internal/dashboard"
	"hft-ui-go/internal/database"
	"hft-ui-go/internal/hftapi"
	"hft-ui-go/internal/logger"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the journal database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	journal := database.NewJournal(db)

	client := hftapi.NewClient(&cfg.API, log)

	store := dashboard.NewStore()
	notifier := dashboard.NewNotifier(cfg.Dashboard.NotificationTTL, store)
	syncer := dashboard.NewSyncer(log, &cfg.Dashboard, client, store, notifier, journal)

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	go func() {
		syncer.Run(ctx)
		close(done)
	}()

	server := NewServer(cfg.Server.Port, log, NewAPIHandler(log, store, syncer, journal, time.Local))
	go func() {
		if err := server.Start(); err != nil {
			log.Error("Web server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Web server shutdown failed", zap.Error(err))
	}
	<-done

	log.Info("Dashboard has been shut down.")
}
