package exporter

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
)

// Watch refreshes the collectors whenever an observation file is written,
// until ctx is done. A missing metrics directory is created so recorders
// started later are still seen.
func (e *Exporter) Watch(ctx context.Context) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(e.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isObservationFile(event.Name) {
				continue
			}
			if err := e.Update(); err != nil {
				contract.LogWarn("Metrics refresh failed", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			contract.LogWarn("File watcher error", err)
		}
	}
}
