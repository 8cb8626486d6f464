package library

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/auraspace/internal/shared"
	tu "github.com/desertthunder/auraspace/internal/testing"
)

// countingImporter signals on calls for every Import.
type countingImporter struct {
	mu    sync.Mutex
	n     int
	err   error
	calls chan struct{}
}

func newCountingImporter() *countingImporter {
	return &countingImporter{calls: make(chan struct{}, 16)}
}

func (c *countingImporter) Import(ctx context.Context) (*ImportResult, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	c.calls <- struct{}{}
	return &ImportResult{}, c.err
}

func (c *countingImporter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func startWatcher(t *testing.T, root string, importer Importer) *Watcher {
	t.Helper()
	w, err := NewWatcher(root, importer, 50*time.Millisecond, shared.NewLogger(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w
}

func waitForImport(t *testing.T, c *countingImporter) {
	t.Helper()
	select {
	case <-c.calls:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for import")
	}
}

func TestWatcher(t *testing.T) {
	t.Run("New Audio File Triggers Import", func(t *testing.T) {
		root := t.TempDir()
		importer := newCountingImporter()
		startWatcher(t, root, importer)

		tu.MustWriteFile(t, root, "new.mp3", mp3Frames(2))
		waitForImport(t, importer)
	})

	t.Run("Bursts Are Debounced", func(t *testing.T) {
		root := t.TempDir()
		importer := newCountingImporter()
		startWatcher(t, root, importer)

		for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
			tu.MustWriteFile(t, root, name, mp3Frames(2))
		}
		waitForImport(t, importer)

		time.Sleep(200 * time.Millisecond)
		if n := importer.count(); n != 1 {
			t.Errorf("expected 1 import for a burst, got %d", n)
		}
	})

	t.Run("Other Files Are Ignored", func(t *testing.T) {
		root := t.TempDir()
		importer := newCountingImporter()
		startWatcher(t, root, importer)

		tu.MustWriteFile(t, root, "notes.txt", []byte("hello"))

		time.Sleep(250 * time.Millisecond)
		if n := importer.count(); n != 0 {
			t.Errorf("expected no import, got %d", n)
		}
	})

	t.Run("Import Errors Keep Watching", func(t *testing.T) {
		root := t.TempDir()
		importer := newCountingImporter()
		importer.err = errors.New("database locked")
		startWatcher(t, root, importer)

		tu.MustWriteFile(t, root, "first.mp3", mp3Frames(2))
		waitForImport(t, importer)

		tu.MustWriteFile(t, root, "second.mp3", mp3Frames(2))
		waitForImport(t, importer)
	})

	t.Run("Stop Is Idempotent", func(t *testing.T) {
		w, err := NewWatcher(t.TempDir(), newCountingImporter(), 0, nil)
		if err != nil {
			t.Fatalf("NewWatcher failed: %v", err)
		}
		if w.delay != DefaultDebounce {
			t.Errorf("expected default debounce, got %v", w.delay)
		}
		if err := w.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := w.Stop(); err != nil {
			t.Errorf("first Stop failed: %v", err)
		}
		if err := w.Stop(); err != nil {
			t.Errorf("second Stop failed: %v", err)
		}
	})

	t.Run("Stop Without Start", func(t *testing.T) {
		w, err := NewWatcher(t.TempDir(), newCountingImporter(), 0, nil)
		if err != nil {
			t.Fatalf("NewWatcher failed: %v", err)
		}
		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	})
}
