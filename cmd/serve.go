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

	"github.com/facetrack/facetrack/internal/config"
	"github.com/facetrack/facetrack/internal/gallery"
	"github.com/facetrack/facetrack/internal/recognition"
	"github.com/facetrack/facetrack/internal/store"
	"github.com/facetrack/facetrack/internal/store/postgres"
	"github.com/facetrack/facetrack/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the FaceTrack web server.
The server exposes the enrollment, capture, report and correction APIs
for both students and instructors.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	sessionSecret := mustGetString(cmd, "session-secret")

	if sessionSecret == "" {
		sessionSecret = os.Getenv("WEB_SESSION_SECRET")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, sessionSecret
}

// initSignatureIndex loads every roster signature into the in-memory index.
func initSignatureIndex(ctx context.Context, roster *postgres.RosterRepository) (*store.SignatureIndex, error) {
	entries, err := roster.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for index: %w", err)
	}

	index := store.NewSignatureIndex()
	index.Rebuild(entries)
	fmt.Printf("Signature index built with %d students\n", index.Len())
	return index, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	roster := postgres.NewRosterRepository(pool)
	instructors := postgres.NewInstructorRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	corrections := postgres.NewCorrectionRepository(pool)

	index, err := initSignatureIndex(context.Background(), roster)
	if err != nil {
		return err
	}

	g, err := gallery.New(cfg.Gallery.Dir)
	if err != nil {
		return fmt.Errorf("failed to prepare gallery directory: %w", err)
	}

	detector := recognition.NewClient(cfg.Detector.URL, cfg.Detector.Dim, cfg.Detector.Timeout)
	port, host, sessionSecret := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, sessionSecret, web.Dependencies{
		Roster:      roster,
		Instructors: instructors,
		Sessions:    sessions,
		Records:     sessions,
		Corrections: corrections,
		Detector:    detector,
		Gallery:     g,
		Index:       index,
	})

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

	fmt.Printf("Starting FaceTrack on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
