/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Load configuration (.env + environment, flags override)
  2. Configure structured logging
  3. Initialize the SQLite document store
  4. Wire handlers and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
  4. Exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gramsetu/festival-ledger/api"
	"github.com/gramsetu/festival-ledger/festival"
	"github.com/gramsetu/festival-ledger/pkg/config"
	"github.com/gramsetu/festival-ledger/pkg/logging"
	"github.com/gramsetu/festival-ledger/store/sqlite"
)

func main() {
	log := logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to initialize database", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "database", *dbPath)

	handler := api.NewHandler(store, festival.AggregatorConfig{
		UpcomingFestivalsLimit:  cfg.UpcomingFestivalsLimit,
		RecentPaymentsLimit:     cfg.RecentPaymentsLimit,
		RecentTransactionsLimit: cfg.RecentTransactionsLimit,
	}, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
