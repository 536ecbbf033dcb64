/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the club tab server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Load the settings file
  3. Initialize the SQLite store
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: clubtab.db)
             Use ":memory:" for an in-memory database
  -settings  Settings JSON path (default: built-in defaults)
  -correct-snapshots
             Recompute snapshot balances in the window given by -from/-to
             from the event history, then exit. Offline maintenance.

ENVIRONMENT:
  LOG_LEVEL  debug, info, warn, error (default: info)
  Variables may also come from a .env file in the working directory.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and a settings file
  ./server -db="./data/clubtab.db" -settings="./settings.json"

  # Repair historical snapshots after a manual event correction
  ./server -db="./data/clubtab.db" -correct-snapshots -from=2026-01-01 -to=2026-03-31

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/clubtab/clubtab/api"
	"github.com/clubtab/clubtab/config"
	"github.com/clubtab/clubtab/ledger"
	"github.com/clubtab/clubtab/pkg/logging"
	"github.com/clubtab/clubtab/store/sqlite"
)

func main() {
	// .env is optional; real environment wins over file values
	_ = godotenv.Load()
	logging.Setup()

	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "clubtab.db", "SQLite database path")
	settingsPath := flag.String("settings", "", "settings JSON path")
	correct := flag.Bool("correct-snapshots", false, "recompute snapshot balances in [-from, -to] and exit")
	fromFlag := flag.String("from", "", "start date (YYYY-MM-DD) for -correct-snapshots")
	toFlag := flag.String("to", "", "end date (YYYY-MM-DD) for -correct-snapshots")
	flag.Parse()

	settings, err := config.Load(*settingsPath)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *correct {
		if err := correctSnapshots(store, *fromFlag, *toFlag); err != nil {
			slog.Error("snapshot correction failed", "error", err)
			os.Exit(1)
		}
		return
	}

	handler := api.NewHandler(store, settings)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting",
			"addr", fmt.Sprintf("http://localhost:%d", *port),
			"site", settings.SiteName,
			"db", *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// correctSnapshots rewrites historical snapshot balances from the event
// history. Run only while the server is down.
func correctSnapshots(store *sqlite.Store, fromStr, toStr string) error {
	if fromStr == "" || toStr == "" {
		return fmt.Errorf("-correct-snapshots requires -from and -to")
	}
	from, err := ledger.ParseDate(fromStr)
	if err != nil {
		return err
	}
	to, err := ledger.ParseDate(toStr)
	if err != nil {
		return err
	}
	n, err := ledger.NewSnapshotter(store).CorrectRange(context.Background(), from, to)
	if err != nil {
		return err
	}
	slog.Info("snapshot correction complete", "corrected", n,
		"from", from.String(), "to", to.String())
	return nil
}
