package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/admission"
	"github.com/nanjiek/pixiu-cats/internal/api"
	"github.com/nanjiek/pixiu-cats/internal/catalog"
	"github.com/nanjiek/pixiu-cats/internal/clock"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/limiter"
	"github.com/nanjiek/pixiu-cats/internal/logging"
	"github.com/nanjiek/pixiu-cats/internal/reload"
	"github.com/nanjiek/pixiu-cats/internal/repo"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payload, err := reload.FileSource{Path: cfgFile}.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), payload)
		},
	}
}

func serve(parent context.Context, payload reload.Payload) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := payload.Config
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	clk := clock.System{}
	quota, closeStore, err := newQuotaStore(ctx, cfg, clk, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, err := admission.NewRegistry(cfg, quota, logger)
	if err != nil {
		return fmt.Errorf("build endpoints: %w", err)
	}

	svc := catalog.New(clk)
	if err := svc.SeedUsers(ctx, cfg.Users); err != nil {
		return err
	}

	poller := reload.NewPoller(reload.FileSource{Path: cfgFile}, registry,
		time.Duration(cfg.Reload.PollIntervalMs)*time.Millisecond, logger.Named("reload"))
	poller.Prime(payload.Version)
	if cfg.Reload.PollIntervalMs > 0 {
		go poller.Start(ctx)
	}

	pipeline := admission.New(clk, logger.Named("admission"))
	srv := api.NewServer(cfg.Server, pipeline, registry, svc, logger.Named("http"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("pixiu-cats started",
		zap.String("addr", cfg.Server.HTTPAddr),
		zap.String("throttle_store", cfg.Throttle.Store),
		zap.Int("users", svc.Users.Len()),
		zap.Int("pid", os.Getpid()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return shutdown(srv, cfg, logger)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				if _, err := poller.SyncOnce(ctx); err != nil {
					logger.Warn("reload failed, keeping current endpoints", zap.String("path", cfgFile), zap.Error(err))
				}
				continue
			}
			logger.Info("shutting down", zap.String("signal", sig.String()))
			cancel()
			return shutdown(srv, cfg, logger)
		}
	}
}

func shutdown(srv *api.Server, cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutMs)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// newQuotaStore returns the configured throttle state backend and its
// cleanup function.
func newQuotaStore(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *zap.Logger) (limiter.QuotaStore, func(), error) {
	switch cfg.Throttle.Store {
	case "redis":
		rdb, err := repo.NewRedis(cfg.Redis, logger.Named("redis"))
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return limiter.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	default:
		mem := limiter.NewMemoryStore()
		mem.StartJanitor(ctx, clk, time.Minute, logger.Named("quota"))
		return mem, func() {}, nil
	}
}
