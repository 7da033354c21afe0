package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"udlaeg/internal/app"
	"udlaeg/internal/backend"
	"udlaeg/internal/config"
	apphttp "udlaeg/internal/http"
	applog "udlaeg/internal/log"
	"udlaeg/internal/share"
	"udlaeg/internal/submission"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.ConfigFromEnv(cfg.LogLevel, cfg.LogFormat)).WithComponent(applog.ComponentApp)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var sharer submission.Sharer
	if result.Bridge != nil {
		sharer = share.NewAMQPSharer(result.Bridge, cfg.ShareMaxBytes)
	}

	var downloader submission.Downloader
	if dl, err := share.NewDirDownloader(cfg.DownloadDir); err != nil {
		logger.Warn("Receipt image downloads disabled", "error", err, "dir", cfg.DownloadDir)
	} else {
		downloader = dl
		logger.Info("Receipt image downloads enabled", "dir", dl.Dir())
	}

	a := app.New(ctx, app.Deps{
		KV:         result.KV,
		Sharer:     sharer,
		Downloader: downloader,
		Options: submission.Options{
			ValidateEmail: cfg.ValidateEmail,
			NativeShare:   cfg.NativeShare,
		},
	})

	srv := apphttp.NewServer(":"+cfg.Port, a, apphttp.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	// Uploads of several photos take longer than plain form posts
	srv.ReadTimeout = 60 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			return
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting udlaeg server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"share_bridge", sharer != nil,
		"downloads", downloader != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		cancel()
		<-stopped
		os.Exit(1)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
