// Package server initializes and runs the application: it wires the
// configured quota and storage backends to the asset service, starts the
// HTTP server, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelins/classmedia/internal/logging"
	"github.com/avelins/classmedia/internal/server/config"
	"github.com/avelins/classmedia/internal/server/httpserver"
	"github.com/avelins/classmedia/internal/server/metrics"
	"github.com/avelins/classmedia/internal/server/quota"
	"github.com/avelins/classmedia/internal/server/services"
	"github.com/avelins/classmedia/internal/server/shared/db"
	"github.com/avelins/classmedia/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager db.Manager
	server  *httpserver.Server
}

// newQuotaStore constructs the configured quota backend. Unknown names are
// an error, never a silent fallback: running with the wrong backend would
// quietly un-enforce the ceilings.
func newQuotaStore(c *config.Config) (quota.Store, error) {
	ceilings := quota.Ceilings{
		UploadsPerHour: c.QuotaUploadsPerHour,
		UploadsPerDay:  c.QuotaUploadsPerDay,
		MaxTotalBytes:  c.QuotaMaxTotalBytes,
	}

	switch c.QuotaBackend {
	case config.QuotaBackendRedis:
		return quota.NewRedisStore(c.RedisURL, ceilings)
	case config.QuotaBackendMemory:
		return quota.NewMemoryStore(ceilings), nil
	default:
		return nil, fmt.Errorf("unknown quota backend %q", c.QuotaBackend)
	}
}

func newObjectStore(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
	switch c.StorageBackend {
	case config.StorageBackendS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	manager, err := db.NewPostgresManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	quotaStore, err := newQuotaStore(c)
	if err != nil {
		return nil, err
	}

	objectStore, err := newObjectStore(ctx, c)
	if err != nil {
		return nil, err
	}

	svc := services.NewAssetService(manager.Assets(), objectStore, quotaStore,
		metrics.NewProm("classmedia"), logger, c.UploadCredentialTTL, c.ConfirmHeadTimeout)

	srv := httpserver.NewServer(c.EndpointAddrHTTP, []byte(c.SecretKey), svc, logger)

	return &App{config: c, logger: logger, manager: manager, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// termination signal arrives, then drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app",
		"addr", app.config.EndpointAddrHTTP,
		"quota_backend", app.config.QuotaBackend,
		"storage_backend", app.config.StorageBackend,
	)

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Run(ctx)
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
		runErr = <-errCh
	}

	if err := app.manager.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}

	app.logger.Info(context.Background(), "app stopped")
	return runErr
}
