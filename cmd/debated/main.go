// Debated is a daemon that hosts live debates between two AI agents.
//
// It serves a JSON API for creating and controlling debates and an SSE
// endpoint that streams agent responses token by token as they are
// generated.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon with defaults
//	DEBATED_PROVIDER_API_KEY=sk-... debated
//
//	# Configure via file and environment
//	debated -config /etc/debated/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debated/internal/config"
	"github.com/fyrsmithlabs/debated/internal/httpapi"
	"github.com/fyrsmithlabs/debated/internal/logging"
	"github.com/fyrsmithlabs/debated/internal/orchestrator"
	"github.com/fyrsmithlabs/debated/internal/provider"
	"github.com/fyrsmithlabs/debated/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  debated            Start the debated daemon\n")
			fmt.Fprintf(os.Stderr, "  debated version    Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("debated by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the debated server and blocks until context is cancelled.
//
// It wires config -> logger -> store -> provider -> orchestrator -> HTTP
// server, then shuts everything down in reverse order on cancellation.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting debated",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	st, err := initStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	prov, err := initProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}
	logger.Info("Completion provider initialized",
		zap.String("provider", prov.Name()),
		zap.String("model", cfg.Provider.Model))

	orch, err := orchestrator.NewService(orchestrator.NewRegistry(), st, prov, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	srv, err := httpapi.NewServer(st, orch, logger, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		// Drain the listener error after shutdown.
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// initStore selects the persistence backend: SQLite when a path is
// configured, otherwise in-memory.
func initStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Store.SQLitePath == "" {
		logger.Info("Using in-memory store (debates do not survive restarts)")
		return store.NewMemoryStore(), nil
	}

	st, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	logger.Info("Using sqlite store", zap.String("path", cfg.Store.SQLitePath))
	return st, nil
}

// initProvider builds the configured completion provider.
func initProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider.Name {
	case "openrouter":
		return provider.NewOpenRouter(provider.OpenRouterConfig{
			APIKey:    cfg.Provider.APIKey,
			Model:     cfg.Provider.Model,
			BaseURL:   cfg.Provider.BaseURL,
			Timeout:   cfg.Provider.Timeout,
			RateLimit: cfg.Provider.RateLimit,
		})
	case "scripted":
		return &provider.Scripted{
			Fragments: []string{
				"This ", "position ", "withstands ", "scrutiny ",
				"for ", "three ", "reasons.",
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}
