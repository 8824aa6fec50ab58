package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"fieldlookup/internal/logging"
)

// Watch calls fn with the re-parsed configuration each time the file at path
// is written, created or renamed into place. fn receives the parse error
// instead when the new content is invalid. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors which
// save by rename keep being observed.
func Watch(ctx context.Context, path string, log *logrus.Entry, fn func(*Config, error)) error {
	log = logging.Default(log).WithField("component", "config")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	log.WithField("path", abs).Info("watching")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := Load(abs)
			if err != nil {
				log.WithError(err).Warn("config reload failed")
			} else {
				log.WithField("tables", len(cfg.Tables)).Info("config reloaded")
			}
			fn(cfg, err)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}
