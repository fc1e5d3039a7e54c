package credentials

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events produced by a temp-file rename.
const watchDebounce = 100 * time.Millisecond

// Watch reports changes to the access token made by any process writing the
// same file. The parent directory is watched because Set replaces the file.
func (f *FSStore) Watch(ctx context.Context, fn func(Event)) error {
	if err := EnsureParentDir(f.Path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.Path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.Path), err)
	}

	last := f.currentAccess(ctx)
	target := filepath.Clean(f.Path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Reset(watchDebounce)
			} else {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("credentials watcher: %w", err)

		case <-fire:
			timer, fire = nil, nil
			current := f.currentAccess(ctx)
			if current == last {
				continue
			}
			last = current
			fn(Event{Key: KeyAccess, Value: current})
		}
	}
}

func (f *FSStore) currentAccess(ctx context.Context) string {
	creds, err := f.Get(ctx)
	if err != nil || creds == nil {
		return ""
	}
	return creds.Access
}
