package model

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes of artifact files made after the model was loaded. The loaded pair is never replaced,
// a change only sets RestartRequired. Directories are watched because artifacts are replaced by rename.
// Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("can't get absolute path for %s: %w", f, err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add %s to watcher: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] stopping artifacts watcher, %v", ctx.Err())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if !s.IsLoaded() {
				// nothing loaded yet, the next load picks the new file up
				continue
			}
			if !s.restartRequired.Swap(true) {
				log.Printf("[WARN] model artifact %s changed, restart required to use it", event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] artifacts watcher error: %v", err)
		}
	}
}
