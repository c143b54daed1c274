package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/riskibarqy/soccer-livescore/external/toralarm"
	"github.com/riskibarqy/soccer-livescore/internal/config"
	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/housekeeping"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/publisher"
	cacherepo "github.com/riskibarqy/soccer-livescore/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/soccer-livescore/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/soccer-livescore/internal/platform/cache"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
)

// App owns every long-lived component of the service.
type App struct {
	cfg          config.Config
	logger       *logging.Logger
	server       *http.Server
	scheduler    *usecase.RefreshScheduler
	service      *usecase.LivescoreService
	enricher     *usecase.DetailEnricher
	housekeeping *housekeeping.Scheduler
	closers      []io.Closer
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{cfg: cfg, logger: logger}
	if err := a.build(ctx); err != nil {
		_ = a.closeResources()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	clock := usecase.SystemClock()

	client := toralarm.NewClient(toralarm.ClientConfig{
		BaseURL:           cfg.ToralarmBaseURL,
		Timeout:           cfg.ToralarmTimeout,
		RequestsPerSecond: cfg.ToralarmRatePerSecond,
		Burst:             cfg.ToralarmRateBurst,
		Logger:            logger,
		CircuitBreaker:    cfg.ToralarmCircuitBreaker,
	})

	var catalog competition.Catalog = client
	if cfg.CatalogCacheTTL > 0 {
		catalog = cacherepo.NewCatalogRepository(client, basecache.NewStore(cfg.CatalogCacheTTL))
	}

	archive, archiveCloser, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if archiveCloser != nil {
		a.closers = append(a.closers, archiveCloser)
	}

	hub := publisher.NewHub(nil)
	out, closers, err := buildPublisher(cfg, hub, archive, logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, closers...)

	enricher, err := usecase.NewDetailEnricher(client, cfg.EnricherWorkers, logger)
	if err != nil {
		return fmt.Errorf("build detail enricher: %w", err)
	}
	a.enricher = enricher

	feeds := usecase.NewFeedService(client, enricher, out, clock, logger)
	schedulerLogger := logger.Named("scheduler")
	a.scheduler = usecase.NewRefreshScheduler(feeds, clock, usecase.SchedulerConfig{
		RetryDelay: cfg.RetryDelay,
		AlignFeeds: cfg.AlignFeedsWithStandings,
		OnTransition: func(view usecase.FeedSchedule) {
			schedulerLogger.Debug("feed transition",
				"competition_id", view.CompetitionID,
				"kind", string(view.Kind),
				"state", string(view.State),
				"delay_ms", view.DelayMs,
			)
		},
	}, logger)

	registry := usecase.NewCompetitionRegistry(catalog, logger)
	a.service = usecase.NewLivescoreService(registry, a.scheduler, out, hub, archive, clock, logger)

	if archive != nil && cfg.ArchiveRetention > 0 {
		retention := usecase.NewSnapshotRetention(archive, clock, cfg.ArchiveRetention, logger)
		a.housekeeping, err = housekeeping.NewScheduler(logger, housekeeping.Job{
			Name:    "snapshot-retention",
			Spec:    cfg.ArchiveRetentionCron,
			Timeout: time.Minute,
			Run: func(ctx context.Context) error {
				_, err := retention.Prune(ctx)
				return err
			},
		})
		if err != nil {
			return fmt.Errorf("build housekeeping: %w", err)
		}
	}

	handler := httpapi.NewHandler(a.service, logger)
	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminToken),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return nil
}

// Run starts the scheduler, applies the configuration from the environment
// and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.scheduler.Run(ctx); err != nil {
			a.logger.Error("refresh scheduler failed", "error", err)
		}
	}()
	if a.housekeeping != nil {
		a.housekeeping.Start()
	}

	if len(a.cfg.Leagues) > 0 {
		result, err := a.service.Configure(ctx, a.startupSettings())
		if err != nil {
			a.logger.Error("apply startup configuration failed", "error", err)
		} else {
			a.logger.Info("startup configuration applied", "feeds", result.FeedCount, "competitions", len(result.Competitions))
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func (a *App) startupSettings() usecase.DisplaySettings {
	return usecase.DisplaySettings{
		Language:      a.cfg.Language,
		ShowStandings: a.cfg.ShowStandings,
		ShowDetails:   a.cfg.ShowDetails,
		ShowTables:    a.cfg.ShowTables,
		ShowScorers:   a.cfg.ShowScorers,
		Leagues:       a.cfg.Leagues,
	}
}

// Shutdown stops the HTTP server and waits for the scheduler to drain. The
// context passed to Run must already be cancelled.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.housekeeping != nil {
		a.housekeeping.Stop()
	}

	select {
	case <-a.scheduler.Done():
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("wait for scheduler: %w", ctx.Err()))
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeResources() error {
	if a.enricher != nil {
		a.enricher.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
