package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/session"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the attendance API server.
The server accepts face embeddings from capture kiosks, drives the class
session state machine, and serves rosters, summaries and a live event
stream for the instructor dashboard.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// initCentroidIndex builds the in-memory HNSW index over enrolled centroids.
func initCentroidIndex(ctx context.Context, store database.Store) (*database.CentroidIndex, error) {
	identities, err := store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading identities for index: %w", err)
	}

	index := database.NewCentroidIndex()
	if err := index.Build(identities); err != nil {
		return nil, fmt.Errorf("building centroid index: %w", err)
	}
	fmt.Printf("Centroid index built with %d identities\n", index.Count())
	return index, nil
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	pool := postgres.GetGlobalPool()
	defer pool.Close()
	store := postgres.NewStore(pool)

	index, err := initCentroidIndex(context.Background(), store)
	if err != nil {
		return err
	}

	broadcaster := handlers.NewBroadcaster()
	manager := session.NewManager(store, cfg.Matcher.Threshold,
		session.WithNotifier(broadcaster),
		session.WithRepeatCooldown(cfg.Session.RepeatCooldown),
	)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, store, manager, index, broadcaster)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Matching model %s (dim %d, distance threshold %.2f)\n",
		cfg.Matcher.Model, cfg.Matcher.Dim, cfg.Matcher.Threshold)
	fmt.Printf("Starting attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
