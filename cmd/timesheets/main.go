package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/highercomve/timesheets/internal/api"
	"github.com/highercomve/timesheets/internal/config"
	"github.com/highercomve/timesheets/internal/logger"
	"github.com/highercomve/timesheets/internal/mirror"
	"github.com/highercomve/timesheets/internal/store"
	"github.com/highercomve/timesheets/internal/version"
)

const shutdownTimeout = 10 * time.Second

// configPath honours TIMESHEETS_CONFIG, falling back to the user config dir.
func configPath() (string, error) {
	if p := os.Getenv(config.EnvPrefix + "_CONFIG"); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Backend, func(), error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		b, err := store.NewFileBackend(cfg.DataFolder)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file storage", zap.String("data_folder", cfg.DataFolder))
		return b, func() {}, nil
	}

	db, err := store.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	b := store.NewPostgresBackend(db)
	if err := b.Migrate(ctx); err != nil {
		b.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	return b, closeFn, nil
}

func main() {
	// Logs until the configured logger exists.
	boot := logger.Default()
	path, err := configPath()
	if err != nil {
		boot.Fatal("Failed to resolve config path", zap.Error(err))
	}
	cfg, err := config.Load(path)
	if err != nil {
		boot.Fatal("Failed to load config", zap.String("config", path), zap.Error(err))
	}

	zapLogger, err := logger.New(cfg.Log.Logger())
	if err != nil {
		boot.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting timesheets",
		zap.String("version", version.Version),
		zap.String("config", path),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openBackend(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeBackend()

	storage := store.NewStorage(backend, zapLogger)

	var supabase *mirror.Client
	if cfg.Supabase.Enabled() {
		supabase = mirror.NewClient(cfg.Supabase, zapLogger)
		zapLogger.Info("Supabase mirror enabled", zap.String("url", cfg.Supabase.URL))
	}

	srv := api.NewServer(cfg.Server, zapLogger, api.NewServices(storage, supabase, zapLogger))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}
	zapLogger.Info("Shutdown complete")
}
