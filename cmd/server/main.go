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

	"github.com/iconidentify/nanovideo/internal/api"
	"github.com/iconidentify/nanovideo/internal/api/handler"
	"github.com/iconidentify/nanovideo/internal/config"
	"github.com/iconidentify/nanovideo/internal/coordinator"
	"github.com/iconidentify/nanovideo/internal/extractor"
	"github.com/iconidentify/nanovideo/internal/store"
	"github.com/iconidentify/nanovideo/pkg/relay"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nanovideo %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting nanovideo",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure storage directories exist
	if err := os.MkdirAll(cfg.Storage.DownloadsDir, 0755); err != nil {
		logger.Error("failed to create downloads directory", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Storage.TempDir, 0755); err != nil {
		logger.Error("failed to create temp directory", "error", err)
		os.Exit(1)
	}

	// Select the storage backend once; the rest of the service never
	// branches on the mode again.
	var artifactStore store.Store
	switch cfg.Storage.Mode {
	case config.StorageModeRelay:
		client := relay.NewClient(cfg.Relay)
		artifactStore = store.NewRelayStore(client, logger)
		logger.Info("using relay storage", "base_url", cfg.Relay.BaseURL, "folder", cfg.Relay.Folder)
	default:
		artifactStore, err = store.NewLocalStore(cfg.Storage.DownloadsDir)
		if err != nil {
			logger.Error("failed to initialize local store", "error", err)
			os.Exit(1)
		}
		logger.Info("using local storage", "dir", cfg.Storage.DownloadsDir)
	}

	// Extraction engine with memoized metadata probes
	engine := extractor.NewYTDLP(cfg.Extractor, logger)
	resolver := extractor.NewCachingResolver(engine, cfg.Extractor.InfoCacheTTL)

	coord := coordinator.New(
		resolver,
		artifactStore,
		cfg.Storage.TempDir,
		extractor.NewSlogSink(logger),
		logger,
	)

	// Initialize handlers
	downloadHandler := handler.NewDownloadHandler(coord, resolver, artifactStore, logger)
	filesHandler := handler.NewFilesHandler(artifactStore, logger)
	healthHandler := handler.NewHealthHandler(artifactStore, cfg.Storage.Mode, cfg.Storage.DownloadsDir)

	// Setup router
	router := api.NewRouter(
		downloadHandler,
		filesHandler,
		healthHandler,
		cfg.Auth.Keys(),
		cfg.Auth.AllowedHosts,
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
