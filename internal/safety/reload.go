package safety

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader watches the overlay file and swaps the classifier's rule set
// when it changes. Reload failures keep the previous rules in force.
type Reloader struct {
	watcher    *fsnotify.Watcher
	classifier *Classifier
	path       string
	log        *zap.Logger
}

// NewReloader creates a watcher for the overlay file. Returns an error if
// the file exists but cannot be watched; a missing file disables reload.
func NewReloader(classifier *Classifier, path string, log *zap.Logger) (*Reloader, error) {
	if path == "" {
		return nil, fmt.Errorf("no overlay path to watch")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("overlay not present: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %q: %w", path, err)
	}

	return &Reloader{
		watcher:    watcher,
		classifier: classifier,
		path:       path,
		log:        log,
	}, nil
}

// Run watches for overlay changes and reloads. Blocks until ctx is
// cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after the last write before reloading.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					o, err := LoadOverlay(r.path)
					if err != nil {
						r.log.Warn("overlay reload failed, keeping previous rules", zap.Error(err))
						return
					}
					r.classifier.Reload(o)
					r.log.Info("safety overlay reloaded", zap.String("path", r.path))
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("overlay watcher error", zap.Error(err))
		}
	}
}
