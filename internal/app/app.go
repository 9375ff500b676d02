// Package app wires configuration, storage and the capture pipeline
// together for the command line.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nikbrunner/autobm/internal/bookmarks"
	"github.com/nikbrunner/autobm/internal/config"
	"github.com/nikbrunner/autobm/internal/coordinator"
	"github.com/nikbrunner/autobm/internal/folder"
	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/settings"
	"github.com/nikbrunner/autobm/internal/storage"
)

// App holds the opened components.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Bookmarks   *bookmarks.Service
	Settings    *settings.FileStore
	Folders     *folder.Resolver
	Coordinator *coordinator.Coordinator
}

// Option is a functional option for Open.
type Option func(*App)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// Open opens the bookmark store and settings named by cfg.
func Open(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}

	st, err := storage.OpenStorage(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	svc, err := bookmarks.Open(st, a.Logger)
	if err != nil {
		if c, ok := st.(io.Closer); ok {
			c.Close()
		}
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}

	settingsPath, err := cfg.SettingsPath()
	if err != nil {
		svc.Close()
		return nil, err
	}

	a.Bookmarks = svc
	a.Settings = settings.NewFileStore(settingsPath)
	a.Folders = folder.NewResolver(svc, a.Settings, a.Logger)
	a.Coordinator = coordinator.New(svc, a.Folders, a.Settings, a.Logger)
	return a, nil
}

// Close releases the bookmark store.
func (a *App) Close() error {
	return a.Bookmarks.Close()
}

// Captured returns the bookmarks in the managed folder. The folder is not
// created when missing.
func (a *App) Captured(ctx context.Context) ([]model.Node, error) {
	node, ok := a.Folders.Lookup(ctx)
	if !ok {
		return nil, nil
	}
	children, err := a.Bookmarks.Children(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	var entries []model.Node
	for _, n := range children {
		if !n.IsFolder() {
			entries = append(entries, n)
		}
	}
	return entries, nil
}

// NewLogger builds the process logger: JSON for the long-running server,
// text otherwise.
func NewLogger(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
