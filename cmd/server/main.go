/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Kopichu savings engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (best effort) and parse command-line flags
  2. Initialize SQLite store
  3. Seed the phone catalog if it is empty
  4. Create API handler and router
  5. Start the payment scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port            HTTP server port (default: 8080, env PORT)
  -db              SQLite database path (default: kopichu.db, env DATABASE_PATH)
                   Use ":memory:" for in-memory database
  -sweep-interval  Payment scheduler interval (default: 1h)
  -no-scheduler    Disable automatic payment collection

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the payment scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/kopichu.db"

  # Run with in-memory database, fast sweeps
  ./server -db=":memory:" -sweep-interval=1m

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Payment scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kopichu/savings-engine/api"
	"github.com/kopichu/savings-engine/catalog"
	"github.com/kopichu/savings-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override it.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "kopichu.db"), "SQLite database path")
	sweepInterval := flag.Duration("sweep-interval", time.Hour, "payment scheduler interval")
	noScheduler := flag.Bool("no-scheduler", false, "disable automatic payment collection")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Seed the catalog on first run
	if err := seedCatalog(context.Background(), store); err != nil {
		log.Printf("Warning: Failed to seed catalog: %v", err)
	}

	// Initialize handler and router
	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	// Payment scheduler
	scheduler := api.NewPaymentScheduler(handler.Subs)
	scheduler.CheckInterval = *sweepInterval
	scheduler.Enabled = !*noScheduler
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	scheduler.Stop()

	log.Println("Server stopped")
}

// seedCatalog loads the built-in phones on an empty database.
func seedCatalog(ctx context.Context, store *sqlite.Store) error {
	phones, err := store.ListPhones(ctx)
	if err != nil {
		return err
	}
	if len(phones) > 0 {
		return nil
	}
	defaults := catalog.DefaultPhones()
	if err := store.PutPhones(ctx, defaults); err != nil {
		return err
	}
	log.Printf("[Catalog] Seeded %d phones", len(defaults))
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
