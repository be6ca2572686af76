// Package watch reports file changes that should trigger a new run.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups editor save bursts into one change set.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches files and directories and emits the sorted set of paths
// that changed once the debounce window closes.
type Watcher struct {
	paths    []string
	debounce time.Duration
}

// New creates a Watcher. Files are watched through their parent directory so
// atomic saves (write to temp, rename) are still seen.
func New(debounce time.Duration, paths ...string) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{paths: paths, debounce: debounce}
}

// Watch starts watching. The channel closes when ctx is cancelled or the
// underlying watcher fails.
func (w *Watcher) Watch(ctx context.Context) (<-chan []string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, path := range w.paths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch: %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch: %s: %w", path, err)
		}
		dir := abs
		if !info.IsDir() {
			files[abs] = true
			dir = filepath.Dir(abs)
		} else {
			dirs[abs] = true
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}

	relevant := func(name string) bool {
		if files[name] || dirs[filepath.Dir(name)] {
			return true
		}
		return false
	}

	out := make(chan []string)
	go func() {
		defer close(out)
		defer watcher.Close()

		pending := make(map[string]bool)
		timer := time.NewTimer(w.debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				name, err := filepath.Abs(event.Name)
				if err != nil || !relevant(name) {
					continue
				}
				pending[name] = true
				timer.Reset(w.debounce)

			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				changed := make([]string, 0, len(pending))
				for name := range pending {
					changed = append(changed, name)
				}
				sort.Strings(changed)
				clear(pending)
				select {
				case out <- changed:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// keep watching
			}
		}
	}()

	return out, nil
}
