package workers

import (
	"chat-relay/moderation"
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = 200 * time.Millisecond

// BuildModerator compiles the dictionaries found in dir.
type BuildModerator func(dir string) (*moderation.Moderator, error)

// CensorReloadWorker watches a dictionary directory and swaps the live
// moderator when a .txt file changes. A dictionary that fails to build is
// logged and the previous moderator stays in place.
type CensorReloadWorker struct {
	log           *slog.Logger
	dir           string
	holder        *moderation.Holder
	build         BuildModerator
	debounceDelay time.Duration
}

func NewCensorReloadWorker(log *slog.Logger, dir string, holder *moderation.Holder,
	build BuildModerator, debounceDelay time.Duration) *CensorReloadWorker {
	if debounceDelay <= 0 {
		debounceDelay = defaultDebounceDelay
	}
	return &CensorReloadWorker{
		log:           log,
		dir:           dir,
		holder:        holder,
		build:         build,
		debounceDelay: debounceDelay,
	}
}

func (w *CensorReloadWorker) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("Watching censored dictionaries", "dir", w.dir)

	// Editors write files in several steps, only reload once they settle
	debounce := time.NewTimer(w.debounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(evt.Name) != ".txt" {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(w.debounceDelay)
		case <-debounce.C:
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("Censored dictionaries watcher error", "error", err)
		}
	}
}

func (w *CensorReloadWorker) reload() {
	moderator, err := w.build(w.dir)
	if err != nil {
		w.log.Warn("Censored dictionaries not reloaded", "dir", w.dir, "error", err)
		return
	}
	w.holder.Swap(moderator)
	w.log.Info("Censored dictionaries reloaded", "dir", w.dir)
}
