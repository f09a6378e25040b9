// Command brewery-proxy serves paged Open Brewery DB data over HTTP and
// WebSocket, caching pages in the configured store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/brewery-pager/internal/app"
	"github.com/Sternrassler/brewery-pager/internal/config"
	"github.com/Sternrassler/brewery-pager/internal/httpapi"
	"github.com/Sternrassler/brewery-pager/pkg/logging"
	"github.com/Sternrassler/brewery-pager/pkg/metrics"
	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config (overrides CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.Setup(logging.Config{
		Level:   level,
		Format:  cfg.Log.Format,
		Service: "brewery-proxy",
		Output:  os.Stderr,
	})
	metrics.SetBuildInfo(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Proxy stopped with error")
	}
}

// run wires the service, serves until ctx ends and shuts everything down.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (err error) {
	deps, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, deps.Close()) }()

	registry := pagination.NewRegistry(ctx, deps.Repo.SourceFactory(),
		pagination.WithPageSize(cfg.Paging.PageSize))
	defer registry.Close()

	scheduler, err := startWarmSchedule(ctx, deps, cfg.Warm.Schedule, logger)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { <-scheduler.Stop().Done() }()
	}

	handler := httpapi.NewServer(deps.Repo, registry, deps.Store, httpapi.Config{
		PageSize:       cfg.Paging.PageSize,
		MaxPageSize:    cfg.Paging.MaxPageSize,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	ln, err := net.Listen("tcp", cfg.HTTP.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr(), err)
	}
	logger.Info().
		Str("addr", ln.Addr().String()).
		Str("store", cfg.Store.Driver).
		Str("user_agent", cfg.API.UserAgent).
		Msg("Starting brewery proxy")

	return serve(ctx, ln, handler, cfg.HTTP.ShutdownTimeout, logger)
}

// serve runs an HTTP server on ln until ctx ends, then shuts it down
// gracefully within timeout.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, timeout time.Duration, logger zerolog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down brewery proxy")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; !errors.Is(serveErr, http.ErrServerClosed) {
		err = multierr.Append(err, serveErr)
	}
	return err
}

// startWarmSchedule runs a warm on every tick of schedule. An empty schedule
// disables warming and returns a nil scheduler.
func startWarmSchedule(ctx context.Context, deps *app.Deps, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		_, _ = deps.Warm(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule warm %q: %w", schedule, err)
	}
	c.Start()

	logger.Info().Str("schedule", schedule).Msg("Cache warm scheduled")
	return c, nil
}
