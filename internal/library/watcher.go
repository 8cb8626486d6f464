package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/shared"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event before importing.
const DefaultDebounce = 500 * time.Millisecond

// Importer runs one import pass. [Scanner] implements it.
type Importer interface {
	Import(ctx context.Context) (*ImportResult, error)
}

// Watcher re-runs an [Importer] when audio files are created, written or moved under root.
//
// Bursts of events are collapsed into one import after the debounce delay. New subdirectories
// are watched as they appear.
type Watcher struct {
	root     string
	importer Importer
	logger   *log.Logger
	delay    time.Duration

	fsw      *fsnotify.Watcher
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// NewWatcher creates a Watcher. A non-positive delay uses [DefaultDebounce].
func NewWatcher(root string, importer Importer, delay time.Duration, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:     root,
		importer: importer,
		logger:   shared.WithLogger(logger, "component", "watcher"),
		delay:    delay,
		fsw:      fsw,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start watches root and every directory below it, then handles events until ctx is done or
// [Watcher.Stop] is called.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		w.fsw.Close()
		close(w.done)
		return err
	}

	w.started.Store(true)
	go w.run(ctx)
	return nil
}

// Stop ends event handling and releases the underlying watches. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.started.Load() {
			<-w.done
		}
		err = w.fsw.Close()
		if errors.Is(err, fsnotify.ErrClosed) {
			err = nil
		}
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	debounce := time.NewTimer(w.delay)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				debounce.Reset(w.delay)
			}

		case <-debounce.C:
			result, err := w.importer.Import(ctx)
			if err != nil {
				w.logger.Error("import failed", "error", err)
				continue
			}
			if len(result.Added) > 0 {
				w.logger.Info("library updated", "added", len(result.Added))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)

		case <-ctx.Done():
			return

		case <-w.stop:
			return
		}
	}
}

// relevant reports whether event should trigger an import, adding a watch for new directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("cannot watch directory", "path", event.Name, "error", err)
			}
			return true
		}
	}

	return IsAudioFile(event.Name)
}
