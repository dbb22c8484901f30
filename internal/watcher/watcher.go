// Package watcher reports changes to the dataset file on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before a change is reported
const DefaultDebounce = 250 * time.Millisecond

// Watcher monitors a directory for writes to the dataset file and its
// compressed variants. Bursts of events are collapsed into one change.
type Watcher struct {
	Dir      string
	Changes  <-chan string // Paths of changed dataset files
	debounce time.Duration
	names    map[string]bool

	changes chan string
	done    chan struct{}
	watcher *fsnotify.Watcher
	logger  zerolog.Logger
}

// New creates a watcher for name inside dir. name.xz and name.gz are watched too.
func New(dir, name string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ch := make(chan string, 16)
	return &Watcher{
		Dir:      dir,
		Changes:  ch,
		debounce: debounce,
		names:    map[string]bool{name: true, name + ".xz": true, name + ".gz": true},
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		logger:   logging.GetLogger("watcher").With().Str("dir", dir).Logger(),
	}, nil
}

// Start begins watching. The directory is watched rather than the file so
// atomic replace-by-rename is seen.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}
	w.logger.Info().Msg("Watching dataset directory")
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if !w.names[filepath.Base(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) >= w.debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) emit(file string) {
	w.logger.Debug().Str("file", file).Msg("Dataset file changed")
	select {
	case w.changes <- file:
	default:
		// A reload is already queued
	}
}
