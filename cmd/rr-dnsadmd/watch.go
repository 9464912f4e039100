package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/rr-dnsadm/internal/dns/common/log"
	"github.com/haukened/rr-dnsadm/internal/dns/repos/zonefile"
)

// importDebounce collapses bursts of file events (editors write, rename and chmod) into one import.
const importDebounce = 250 * time.Millisecond

// watchImports re-imports the import directory whenever a zone file in it changes.
func (app *Application) watchImports(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(app.config.Import.Directory); err != nil {
		return fmt.Errorf("failed to watch %s: %w", app.config.Import.Directory, err)
	}
	log.Info(map[string]any{"import_dir": app.config.Import.Directory}, "Watching zone files")

	timer := time.NewTimer(importDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !zonefile.IsSupported(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			log.Debug(map[string]any{"file": ev.Name, "op": ev.Op.String()}, "Zone file changed")
			timer.Reset(importDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(map[string]any{"error": err.Error()}, "Zone file watcher error")
		case <-timer.C:
			if err := app.importZones(ctx); err != nil {
				log.Error(map[string]any{"error": err.Error()}, "Zone re-import finished with errors")
			}
		}
	}
}
