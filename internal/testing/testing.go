// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
)

// MockTrackStore is an in-memory test double for the track repository.
//
// By default Get hides deleted tracks like the SQLite repository does. Set LeakDeleted to
// return them anyway, to exercise callers that must not trust the store's filter.
type MockTrackStore struct {
	mu          sync.Mutex
	tracks      map[string]*models.Track
	GetErr      error
	LeakDeleted bool
	Calls       int
}

// NewMockTrackStore creates a store seeded with tracks.
func NewMockTrackStore(tracks ...*models.Track) *MockTrackStore {
	m := &MockTrackStore{tracks: make(map[string]*models.Track)}
	for _, t := range tracks {
		m.tracks[t.ID()] = t
	}
	return m
}

// Put adds or replaces a track.
func (m *MockTrackStore) Put(track *models.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks[track.ID()] = track
}

func (m *MockTrackStore) Get(id string) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	track, ok := m.tracks[id]
	if !ok || (track.IsDeleted() && !m.LeakDeleted) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return track, nil
}

func (m *MockTrackStore) List(criteria map[string]any) ([]*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Track
	for _, t := range m.tracks {
		if !t.IsDeleted() {
			out = append(out, t)
		}
	}
	return out, nil
}

// NewTrack builds a track with a generated id, as if it had been read back from the database.
func NewTrack(title, location string) *models.Track {
	track := models.NewTrack(1, models.TrackInfo{Title: title, Artist: "Test Artist", TrackURL: location})
	track.SetID(shared.GenerateID())
	return track
}

// NewDeletedTrack builds a soft-deleted track.
func NewDeletedTrack(title, location string) *models.Track {
	track := NewTrack(title, location)
	deletedAt := time.Now()
	track.SetDeletedAt(&deletedAt)
	return track
}

// Pattern returns n deterministic bytes whose value depends on position, so slices can be checked for offset errors.
func Pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte((i*7 + i/251) % 256)
	}
	return data
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MustWriteFile writes data to dir/name and returns the full path.
func MustWriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) []byte {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return content
}
