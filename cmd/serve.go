package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/library"
	"github.com/desertthunder/auraspace/internal/media"
	"github.com/desertthunder/auraspace/internal/repositories"
	"github.com/desertthunder/auraspace/internal/server"
	"github.com/desertthunder/auraspace/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP API and blocks until SIGINT or SIGTERM.
//
// Shutdown drains in-flight requests for up to server.shutdown_timeout, stops the media watcher
// and then closes the repository.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	applyServeFlags(r.config, cmd)
	if err := r.config.Validate(); err != nil {
		return err
	}

	repo, err := r.openRepository()
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			r.logger.Warn("failed to close repository", "error", err)
		}
	}()

	handler, err := newHandler(r.config, repo, r.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.config.Media.Watch {
		watcher, err := startWatcher(ctx, r.config.Media.Root, repo, r.logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	ln, err := net.Listen("tcp", r.config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.config.Server.Addr(), err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: r.config.Server.ReadHeaderTimeout.Duration,
		ErrorLog:          r.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
	}

	r.logger.Info("server listening", "addr", ln.Addr().String(), "media_root", r.config.Media.Root)
	return runServer(ctx, srv, ln, r.config.Server.ShutdownTimeout.Duration, r.logger)
}

// applyServeFlags overlays command line overrides onto config.
func applyServeFlags(config *shared.Config, cmd *cli.Command) {
	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		config.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("media") {
		config.Media.Root = cmd.String("media")
	}
	if cmd.Bool("watch") {
		config.Media.Watch = true
	}
}

// newHandler wires resolver, streamer, handlers and middleware into one [http.Handler].
func newHandler(config *shared.Config, repo *repositories.TrackRepository, logger *log.Logger) (http.Handler, error) {
	resolver, err := media.NewResolver(config.Media.Root)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(resolver.Root()); err != nil || !fi.IsDir() {
		logger.Warn("media root is not a directory, local tracks will report missing files", "root", resolver.Root())
	}

	streamer := media.NewStreamer(repo, resolver, logger)

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(logger), server.RequestLogger(logger))
	if config.Server.RateLimit > 0 {
		router.Use(server.RateLimit(server.NewClientLimiter(config.Server.RateLimit, config.Server.RateBurst)))
	}

	router.Handler(server.HealthHandler{})
	router.Handler(server.NewTrackHandler(repo, logger))
	router.Handler(server.NewStreamHandler(streamer, logger))

	return router, nil
}

// startWatcher imports once, then keeps importing files added under root until ctx is done.
func startWatcher(ctx context.Context, root string, repo *repositories.TrackRepository, logger *log.Logger) (*library.Watcher, error) {
	scanner := library.NewScanner(root, repo, logger)
	if result, err := scanner.Import(ctx); err != nil {
		logger.Warn("initial import failed", "error", err)
	} else {
		logger.Info("initial import finished", "added", len(result.Added), "skipped", result.Skipped, "failed", result.Failed)
	}

	watcher, err := library.NewWatcher(root, scanner, library.DefaultDebounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		watcher.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return watcher, nil
}

// runServer serves on ln until ctx is done, then shuts srv down within timeout.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *log.Logger) error {
	errs := make(chan error, 1)
	go func() {
		errs <- srv.Serve(ln)
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		srv.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
