// Package app wires configuration into the store, API client, repository and
// warmer shared by the brewery binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/brewery-pager/internal/config"
	"github.com/Sternrassler/brewery-pager/pkg/cache"
	"github.com/Sternrassler/brewery-pager/pkg/client"
	"github.com/Sternrassler/brewery-pager/pkg/metrics"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/Sternrassler/brewery-pager/pkg/ratelimit"
	"github.com/Sternrassler/brewery-pager/pkg/repository"
	"github.com/Sternrassler/brewery-pager/pkg/sqlstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Store is a pagination store that can report its health.
type Store interface {
	pagination.Store
	Ping(ctx context.Context) error
}

// Deps holds the wired collaborators. Close releases them.
type Deps struct {
	Config *config.Config
	Store  Store
	Client *client.Client
	Repo   *repository.Repository
	Redis  *redis.Client

	logger  zerolog.Logger
	closers []func() error
}

// Build opens the configured store and Redis connection and wires the
// client and repository. On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config) (deps *Deps, err error) {
	d := &Deps{
		Config: cfg,
		logger: log.With().Str("component", "app").Logger(),
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, d.Close())
		}
	}()

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		d.Redis = rdb
		d.logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	}

	if err := d.openStore(); err != nil {
		return nil, err
	}

	clientCfg := client.DefaultConfig(cfg.API.UserAgent)
	clientCfg.BaseURL = cfg.API.BaseURL
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.Retry = client.RetryConfig{
		MaxAttempts:       cfg.API.MaxAttempts,
		InitialBackoff:    cfg.API.InitialBackoff,
		MaxBackoff:        cfg.API.MaxBackoff,
		BackoffMultiplier: 2.0,
	}
	if d.Redis != nil {
		clientCfg.RateLimitStore = ratelimit.NewRedisStateStore(d.Redis)
	}
	c, err := client.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create brewery client: %w", err)
	}
	d.Client = c
	d.Repo = repository.New(d.Store, c)

	return d, nil
}

func (d *Deps) openStore() error {
	cfg := d.Config
	switch cfg.Store.Driver {
	case config.DriverRedis:
		if d.Redis == nil {
			return fmt.Errorf("redis store driver needs redis.addr")
		}
		d.Store = cache.NewStore(d.Redis, cache.WithPrefix(cfg.Redis.Prefix))
	default:
		s, err := sqlstore.OpenStore(sqlstore.Config{
			Driver: cfg.Store.Driver,
			Path:   cfg.Store.Path,
			DSN:    cfg.Store.DSN,
		})
		if err != nil {
			return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
		}
		d.closers = append(d.closers, s.Close)
		d.Store = s
	}
	d.logger.Info().Str("driver", cfg.Store.Driver).Msg("Store opened")
	return nil
}

// Warm preloads the configured types and records the run outcome.
func (d *Deps) Warm(ctx context.Context) (pagination.WarmReport, error) {
	w := d.Config.Warm
	warmer := pagination.NewWarmer(d.Repo.SourceFactory(), pagination.WarmConfig{
		MaxConcurrency: w.Concurrency,
		Pages:          w.Pages,
		PageSize:       d.Config.Paging.PageSize,
		Timeout:        w.Timeout,
	})

	report, err := warmer.Warm(ctx, w.WarmTypes())
	evt := d.logger.Info()
	if err != nil {
		metrics.WarmRuns.WithLabelValues("error").Inc()
		evt = d.logger.Warn().Err(err)
	} else {
		metrics.WarmRuns.WithLabelValues("ok").Inc()
	}
	evt.Int("types", len(report.Results)).
		Int("breweries", report.Breweries()).
		Dur("duration", report.Duration.Round(time.Millisecond)).
		Msg("Warm run finished")
	return report, err
}

// Close releases everything Build opened, in reverse order.
func (d *Deps) Close() error {
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, d.closers[i]())
	}
	d.closers = nil
	return err
}
