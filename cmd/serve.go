package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vinnieai/vinnie/internal/attachment"
	"github.com/vinnieai/vinnie/internal/config"
	"github.com/vinnieai/vinnie/internal/database"
	"github.com/vinnieai/vinnie/internal/gemini"
	"github.com/vinnieai/vinnie/internal/history"
	"github.com/vinnieai/vinnie/internal/identity"
	"github.com/vinnieai/vinnie/internal/log"
	"github.com/vinnieai/vinnie/internal/turn"
	"github.com/vinnieai/vinnie/internal/web"
)

// Server timeout configuration. The write timeout is long because turn
// responses stream for as long as the generative service produces output.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 5 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the full service and blocks until shutdown.
func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{
		Level: parseLogLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dsn := cfg.PostgresConnectionString()
	if err := database.Migrate(dsn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer pool.Close()

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.ModelName, logger)
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}

	identityStore, err := identity.NewPostgresStore(pool, logger)
	if err != nil {
		return fmt.Errorf("creating identity store: %w", err)
	}
	historyStore, err := history.NewPostgresStore(pool, cfg.HistoryWindow, logger)
	if err != nil {
		return fmt.Errorf("creating history store: %w", err)
	}

	resolver := identity.NewResolver(identityStore, logger)
	executor := turn.NewExecutor(client, historyStore, logger)
	attachments := attachment.NewHandler(client, cfg.AllowedExtensions, cfg.UploadDir, logger)

	server, err := web.NewServer(web.ServerConfig{
		Logger:        logger,
		Resolver:      resolver,
		Executor:      executor,
		Attachments:   attachments,
		Pool:          pool,
		DefaultLocale: cfg.DefaultLocale,
		IsDev:         cfg.PostgresSSLMode == "disable",
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("gateway ready",
		"addr", cfg.ListenAddr,
		"model", client.Model(),
		"api", "/api/*",
		"health", "/healthz, /readyz",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down gateway")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
