package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/mixtape/internal/adapter"
	"github.com/llehouerou/mixtape/internal/audio"
	"github.com/llehouerou/mixtape/internal/bridge"
	"github.com/llehouerou/mixtape/internal/config"
	"github.com/llehouerou/mixtape/internal/errmsg"
	"github.com/llehouerou/mixtape/internal/mpris"
	"github.com/llehouerou/mixtape/internal/playback"
	"github.com/llehouerou/mixtape/internal/resolver"
	"github.com/llehouerou/mixtape/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	// Stream resolver: network client behind a sqlite TTL cache. Without a
	// configured resolver bandcamp entries stay in manual-interaction mode.
	var res resolver.Resolver
	if cfg.HasResolver() {
		client := resolver.NewClient(cfg.Resolver.URL, cfg.Resolver.Quality)
		cache, err := resolver.OpenCache(client, cfg.Resolver.CacheTTLDays)
		if err != nil {
			logger.Warn(errmsg.Format(errmsg.OpCacheOpen, err))
			res = client
		} else {
			res = cache
			defer cache.Close()
		}
	} else {
		logger.Info("no stream resolver configured, bandcamp extraction disabled")
		res = unconfiguredResolver{}
	}

	hub := bridge.NewHub(logger.With("component", "bridge"))
	go hub.Run()
	defer hub.Close()

	deps := adapter.Deps{
		Runtime:   hub,
		Messenger: hub,
		NewEngine: func() adapter.AudioEngine { return audio.New(nil) },
		Retry: adapter.RetryPolicy{
			Attempts: cfg.MountRetries,
			Delay:    cfg.MountRetryDelay(),
		},
	}

	svc := playback.New(res, deps, playback.Options{
		PollInterval:  cfg.PollInterval(),
		DefaultVolume: cfg.DefaultVolume,
		Logger:        logger.With("component", "playback"),
	})
	defer svc.Close()

	mprisAdapter, err := mpris.New(svc)
	if err != nil {
		logger.Warn("mpris unavailable", "err", err)
	} else {
		defer mprisAdapter.Close()
	}

	srv := server.New(svc, hub, logger.With("component", "server"))
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return errors.New(errmsg.Format(errmsg.OpServerListen, err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// unconfiguredResolver always fails, leaving entries in their fallback state.
type unconfiguredResolver struct{}

func (unconfiguredResolver) Resolve(context.Context, string) ([]resolver.Track, error) {
	return nil, resolver.ErrUnresolved
}
