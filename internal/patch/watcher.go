package patch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const patchSuffix = "_patch.txt"

// Debounce is the window in which repeated events for one file collapse.
const Debounce = 100 * time.Millisecond

// MapFromPath returns the map name of a patch file path, or false when
// path is not a patch file.
func MapFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(strings.ToLower(base), patchSuffix) {
		return "", false
	}
	name := base[:len(base)-len(patchSuffix)]
	if name == "" {
		return "", false
	}
	return name, true
}

// Watch reports changed patch files in dir until ctx is done. onChange gets
// the map name of every written, created, renamed or removed patch file.
func Watch(ctx context.Context, dir string, onChange func(mapName string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	last := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			mapName, ok := MapFromPath(ev.Name)
			if !ok {
				continue
			}
			now := time.Now()
			if t, seen := last[ev.Name]; seen && now.Sub(t) < Debounce {
				continue
			}
			last[ev.Name] = now
			onChange(mapName)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
}
