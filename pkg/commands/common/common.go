// Package common builds the runtime shared by the server and the CLI.
package common

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/modules"
	"github.com/iota-uz/estate-office/pkg/application"
	"github.com/iota-uz/estate-office/pkg/cache"
	"github.com/iota-uz/estate-office/pkg/configuration"
	"github.com/iota-uz/estate-office/pkg/eventbus"
	"github.com/iota-uz/estate-office/pkg/jobs"
	"github.com/iota-uz/estate-office/pkg/listview"
)

const cachePrefix = "estate_office"

// GetDatabasePool connects to dsn, or to the configured database when dsn is empty.
func GetDatabasePool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		dsn = configuration.Use().Database.Opts
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return pool, nil
}

// NewCache returns a redis backed cache when REDIS_URL is set.
func NewCache(conf *configuration.Configuration) (cache.Cache, error) {
	if conf.RedisURL == "" {
		return cache.Nop(), nil
	}
	client, err := cache.NewRedisClient(conf.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "redis client")
	}
	return cache.NewRedisCache(client, cachePrefix), nil
}

// NewApplication wires an application with every built-in module loaded.
func NewApplication(conf *configuration.Configuration, pool *pgxpool.Pool) (application.Application, error) {
	logger := conf.Logger()

	table, err := jobs.ParseIdentifier(conf.Jobs.Table)
	if err != nil {
		return nil, errors.Wrap(err, "JOBS_TABLE")
	}
	queue, err := jobs.NewQueue(table)
	if err != nil {
		return nil, err
	}
	c, err := NewCache(conf)
	if err != nil {
		return nil, err
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
		Cache:    c,
		ListViews: listview.Options{
			PageSize:      conf.ListView.PageSize,
			MaxPageSize:   conf.ListView.MaxPageSize,
			MaxExportRows: conf.ListView.MaxExportRows,
		},
		Queue: queue,
	})
	if err := modules.Load(app, modules.BuiltInModules(conf)...); err != nil {
		return nil, errors.Wrap(err, "load modules")
	}
	return app, nil
}

// StartJobs runs the worker and the cleaner until ctx is done. Either one
// is skipped when disabled by configuration.
func StartJobs(ctx context.Context, conf *configuration.Configuration, pool *pgxpool.Pool, app application.Application) error {
	log := conf.Logger().WithField("component", "jobs")

	table, err := jobs.ParseIdentifier(conf.Jobs.Table)
	if err != nil {
		return errors.Wrap(err, "JOBS_TABLE")
	}

	if conf.Jobs.WorkerEnabled {
		worker, err := jobs.NewWorker(pool, table, jobs.HandlerFunc(app.Jobs().Dispatch), jobs.WorkerOptions{
			PollInterval:    conf.Jobs.PollInterval,
			BatchSize:       conf.Jobs.BatchSize,
			LockTTL:         conf.Jobs.LockTTL,
			MaxAttempts:     conf.Jobs.MaxAttempts,
			SingleActive:    conf.Jobs.SingleActive,
			LastErrorMaxLen: conf.Jobs.LastErrorMaxBytes,
			DispatchTimeout: conf.Jobs.DispatchTimeout,
			Logger:          log.WithField("table", jobs.TableLabel(table)),
		})
		if err != nil {
			return err
		}
		go runUntilDone(ctx, log, "worker", worker.Run)
	}

	if conf.Jobs.CleanerEnabled {
		cleaner, err := jobs.NewCleaner(pool, table, jobs.CleanerOptions{
			Enabled:   true,
			Interval:  conf.Jobs.CleanerInterval,
			Retention: conf.Jobs.CleanerRetention,
			Logger:    log.WithField("table", jobs.TableLabel(table)),
		})
		if err != nil {
			return err
		}
		go runUntilDone(ctx, log, "cleaner", cleaner.Run)
	}
	return nil
}

func runUntilDone(ctx context.Context, log *logrus.Entry, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Errorf("jobs: %s stopped", name)
	}
}
