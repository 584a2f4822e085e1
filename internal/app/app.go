package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"SLComply/internal/config"
	"SLComply/internal/infrastructure/blob"
	"SLComply/internal/infrastructure/cache"
	"SLComply/internal/infrastructure/scheduler"
	"SLComply/internal/infrastructure/storage"
	"SLComply/internal/logging"
	"SLComply/internal/ports"
	"SLComply/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	service   *usecase.ReviewService
	scheduler *usecase.Scheduler
	closers   []func() error
}

// New connects the adapters described by cfg and builds the review service.
// The blob store and the view cache are optional; failing to reach them is
// logged and the service runs without them.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	repo, err := storage.NewSQLRepository(db, cfg.Database.Table)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("change repository: %w", err)
	}

	var linker ports.DocumentLinker
	if cfg.Blob.Enabled() {
		l, err := blob.NewMinioLinker(blob.Options{
			Endpoint:     cfg.Blob.Endpoint,
			AccessKey:    cfg.Blob.AccessKey,
			SecretKey:    cfg.Blob.SecretKey,
			UseSSL:       cfg.Blob.UseSSL,
			Region:       cfg.Blob.Region,
			Bucket:       cfg.Blob.Bucket,
			GovPrefix:    cfg.Blob.GovPrefix,
			NonGovPrefix: cfg.Blob.NonGovPrefix,
			Expiry:       cfg.Blob.Expiry,
		})
		if err != nil {
			a.logger.Warn("document links disabled", "error", err)
		} else {
			linker = l
		}
	}

	var viewCache ports.ViewCache
	if cfg.Cache.RedisURL != "" {
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			a.logger.Warn("view cache disabled", "error", err)
		} else {
			viewCache = c
			a.closers = append(a.closers, c.Close)
		}
	}

	a.service = usecase.NewReviewService(usecase.ReviewDeps{
		Source:       repo,
		Writer:       repo,
		Linker:       linker,
		Cache:        viewCache,
		Logger:       baseLogger,
		TopDocuments: cfg.Views.TopDocuments,
		BacklogStart: cfg.Views.BacklogStartDate(),
		TreemapRoot:  cfg.Views.TreemapRoot,
		CacheTTL:     cfg.Cache.TTL,
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location())
	a.scheduler = usecase.NewScheduler(driver, a.service)

	return a, nil
}

// Service exposes the review service to front ends.
func (a *Application) Service() *usecase.ReviewService {
	return a.service
}

// Refresh rebuilds the snapshot once.
func (a *Application) Refresh(ctx context.Context) error {
	return a.service.Refresh(ctx)
}

// Run refreshes once, then keeps refreshing on the configured interval until
// ctx is cancelled. A failed first refresh is served as an empty snapshot
// until a later tick succeeds.
func (a *Application) Run(ctx context.Context) error {
	if err := a.service.Refresh(ctx); err != nil {
		a.logger.Warn("initial refresh failed", "error", err)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("refresh scheduled", "interval", a.cfg.Scheduler.Interval, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Close releases the database pool and the cache client.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
