package bookmarks

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDelay = 200 * time.Millisecond

// Watch reloads the tree whenever another process rewrites the storage file,
// until ctx is cancelled. The directory is watched rather than the file since
// saves replace the file by rename.
func (s *Service) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	path := s.storage.Path()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	base := filepath.Base(path)
	relevant := map[string]bool{
		base:          true,
		base + "-wal": true,
	}

	s.logger.Info("watcher: started", slog.String("path", path))

	// Saves fire several events; reload once they settle.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			if err := s.Reload(ctx); err != nil {
				s.logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			s.logger.Debug("watcher: reloaded", slog.String("path", path))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant[filepath.Base(ev.Name)] {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if reloadTimer == nil {
				reloadTimer = time.NewTimer(reloadDelay)
				reloadCh = reloadTimer.C
			} else {
				reloadTimer.Reset(reloadDelay)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
