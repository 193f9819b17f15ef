package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/derekprior/padelfix/internal/config"
	"github.com/derekprior/padelfix/internal/database"
	"github.com/derekprior/padelfix/internal/lock"
	"github.com/derekprior/padelfix/internal/logger"
	"github.com/derekprior/padelfix/internal/metrics"
	"github.com/derekprior/padelfix/internal/repository"
	"github.com/derekprior/padelfix/internal/service"
	"github.com/derekprior/padelfix/internal/storage"
)

// app holds the process-wide dependencies of database-backed commands.
type app struct {
	env     *config.Env
	logger  *zap.Logger
	db      *sqlx.DB
	metrics *metrics.Metrics
	locker  lock.Locker
	closers []func() error
}

// newApp loads the environment and builds the logger. The database, lock
// and metrics are only opened when withDB is set.
func newApp(withDB bool) (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	log, err := logger.New(env)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	a := &app{env: env, logger: log}
	if !withDB {
		return a, nil
	}

	db, err := database.Open(env.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	switch env.Lock.Backend {
	case "redis":
		client, err := lock.NewRedisClient(env.Redis)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.locker = lock.NewRedis(client, env.Lock.TTL, env.Lock.Wait)
	default:
		a.locker = lock.NewLocal(env.Lock.Wait)
	}

	a.metrics = metrics.New()
	log.Debug("database ready",
		zap.String("driver", env.Database.Driver),
		zap.String("lock", env.Lock.Backend),
	)
	return a, nil
}

func (a *app) repositories() service.Repositories {
	return service.Repositories{
		Tournaments: repository.NewTournamentRepository(a.db),
		Courts:      repository.NewCourtRepository(a.db),
		Categories:  repository.NewCategoryRepository(a.db),
		Pairs:       repository.NewPairRepository(a.db),
		Zones:       repository.NewZoneRepository(a.db),
		Matches:     repository.NewMatchRepository(a.db),
	}
}

func (a *app) fixtureService(cfg service.FixtureConfig) *service.FixtureService {
	return service.NewFixtureService(a.repositories(), a.db, a.locker, a.metrics, nil, a.logger, cfg)
}

func (a *app) importService() *service.ImportService {
	return service.NewImportService(service.ImportWriters{
		Tournaments: repository.NewTournamentRepository(a.db),
		Courts:      repository.NewCourtRepository(a.db),
		Categories:  repository.NewCategoryRepository(a.db),
		Pairs:       repository.NewPairRepository(a.db),
	}, a.db, a.logger)
}

// uploader returns nil when storage is disabled.
func (a *app) uploader(ctx context.Context) (storage.FileUploader, error) {
	if !a.env.Storage.Enabled {
		return nil, nil
	}
	return storage.NewS3Uploader(ctx, a.env.Storage)
}

// close flushes metrics and releases connections in reverse order.
func (a *app) close() error {
	var first error
	if err := a.metrics.WriteTextfile(a.env.Metrics.TextfilePath); err != nil {
		a.logger.Warn("failed to write metrics textfile", zap.Error(err))
		first = err
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	_ = a.logger.Sync()
	return first
}
