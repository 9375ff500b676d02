package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/nikbrunner/autobm/internal/messaging"
)

const shutdownTimeout = 10 * time.Second

// Serve listens on the configured address and runs until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.App.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener runs the coordinator behind the message port on ln, with
// the store watcher alongside, until ctx is cancelled or one part fails.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	logger := a.Logger

	if err := a.Coordinator.Install(ctx); err != nil {
		// The folder is resolved again on the first click.
		logger.Warn("install failed", slog.String("error", err.Error()))
	}

	bus := messaging.NewBus(0)
	messages := bus.Subscribe()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Mount("/", messaging.NewHandler(bus, logger))

	httpServer := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", ln.Addr().String()),
		slog.String("storage", a.Bookmarks.Path()),
		slog.String("settings", a.Settings.Path()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Bookmarks.Watch(gCtx)
	})

	g.Go(func() error {
		return a.Coordinator.Run(gCtx, messages)
	})

	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		bus.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Server stopped")
	return nil
}
