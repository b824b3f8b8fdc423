package userdb

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the credential file changes on disk.
// It watches the containing directory rather than the file itself so that
// editors and provisioning tools that replace the file are observed.
// Watch blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := s.Reload(path); err != nil {
				logger.Warn("credential reload failed",
					"path", path,
					"error", err.Error())
				continue
			}
			logger.Info("credentials reloaded",
				"path", path,
				"users", s.Len())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("credential watcher error", "error", err.Error())
		}
	}
}
