package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/feedwatch/internal/control"
	"github.com/vietddude/feedwatch/internal/core/config"
	"github.com/vietddude/feedwatch/internal/observability"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:     "feedwatch",
	Short:   "Feed item classification service",
	Long:    `Feedwatch classifies live feed items with an LLM, tracks aggregate severity and drives a one-shot intervention with automated cleanup.`,
	Version: Version,
	Run:     runWatcher,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads .env and the config file, then initialises logging.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

func runWatcher(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.Tracing, Version)
	if err != nil {
		slog.Warn("Failed to initialize tracing", "error", err)
	}

	app, err := control.NewWatcher(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize Watcher", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start Watcher", "error", err)
		os.Exit(1)
	}

	slog.Info("Watcher started", "config", cfgPath, "provider", cfg.Classifier.Provider, "feeds", len(cfg.Source.Feeds))

	errCh := make(chan error, 1)
	go func() { errCh <- app.Wait() }()

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
	case err := <-errCh:
		if err != nil {
			slog.Error("Component failed, shutting down", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		exitCode = 1
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Warn("Failed to flush traces", "error", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	slog.Info("Watcher stopped gracefully")
}
