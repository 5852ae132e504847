package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the event bursts editors emit on save.
const debounceWindow = 100 * time.Millisecond

// watch runs fn once, then re-runs it every time target changes, until the
// context is cancelled. Failures of fn are logged, not fatal: the point of
// watch mode is to keep reacting to edits.
func watch(ctx context.Context, target string, fn func() error) error {
	runLogged := func() {
		err := fn()
		if err != nil {
			slog.WarnContext(ctx, "action failed", "file", target, "error", err)
		}
	}

	runLogged()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // Already stopping.

	// Watch the parent directory: editors often replace the file on save,
	// which drops a watch registered on the file itself.
	err = watcher.Add(filepath.Dir(target))
	if err != nil {
		return fmt.Errorf("watch %q: %w", target, err)
	}

	slog.InfoContext(ctx, "watching for changes", "file", target)

	var timer *time.Timer

	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Name != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}

			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			slog.DebugContext(ctx, "file changed", "file", target)
			runLogged()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.WarnContext(ctx, "watch error", "error", err)
		}
	}
}
