package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

const audioExt = ".mp3"

// TrackStore is the subset of the track repository the scanner writes through.
type TrackStore interface {
	Create(track *models.Track) error
	GetByURL(location string) (*models.Track, error)
}

// ImportResult summarises one pass over the media root.
type ImportResult struct {
	Added   []*models.Track
	Skipped int
	Failed  int
}

// Scanner imports audio files under root into a [TrackStore].
type Scanner struct {
	root   string
	tracks TrackStore
	logger *log.Logger
}

// NewScanner creates a Scanner for root.
func NewScanner(root string, tracks TrackStore, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scanner{root: root, tracks: tracks, logger: shared.WithLogger(logger, "component", "scanner")}
}

// Import walks the media root and creates a track for each unregistered .mp3 file.
//
// Track URLs are slash-separated paths relative to the root, so the resolver finds the file again.
// Files that are already registered are skipped. A file that cannot be read or stored counts as
// failed and does not stop the walk; cancelling ctx does.
func (s *Scanner) Import(ctx context.Context) (*ImportResult, error) {
	result := &ImportResult{}

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !IsAudioFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		location := filepath.ToSlash(rel)

		switch _, err := s.tracks.GetByURL(location); {
		case err == nil:
			result.Skipped++
			return nil
		case !errors.Is(err, shared.ErrTrackNotFound):
			s.logger.Error("lookup failed", "track_url", location, "error", err)
			result.Failed++
			return nil
		}

		info, err := ReadInfo(path)
		if err != nil {
			s.logger.Warn("unreadable audio file", "path", path, "error", err)
			result.Failed++
			return nil
		}
		info.TrackURL = location

		track := models.NewTrack(0, info)
		if err := s.tracks.Create(track); err != nil {
			s.logger.Error("failed to register track", "track_url", location, "error", err)
			result.Failed++
			return nil
		}

		s.logger.Info("track registered", "track_id", track.ID(), "track_url", location, "title", track.Title())
		result.Added = append(result.Added, track)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	s.logger.Debug("import finished", "added", len(result.Added), "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// IsAudioFile reports whether name has the .mp3 extension, ignoring case.
func IsAudioFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), audioExt)
}

// ReadInfo reads title, artist, album and duration from the file at path.
//
// Files without readable tags get their base name (minus extension) as title. An undecodable
// stream leaves the duration at zero. Only failing to open or rewind the file is an error.
func ReadInfo(path string) (models.TrackInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.TrackInfo{}, err
	}
	defer f.Close()

	info := models.TrackInfo{}

	// Short or untagged files make tag report errors; they are still playable tracks.
	if m, err := tag.ReadFrom(f); err == nil {
		info.Title = strings.TrimSpace(m.Title())
		info.Artist = strings.TrimSpace(m.Artist())
		info.Album = strings.TrimSpace(m.Album())
	}

	if info.Title == "" {
		base := filepath.Base(path)
		info.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return models.TrackInfo{}, err
	}
	if d, err := Duration(f); err == nil {
		info.Duration = int(d.Round(time.Second) / time.Second)
	}

	return info, nil
}

// Duration sums MP3 frame durations read from r.
//
// Junk after at least one decoded frame ends the stream instead of failing it.
func Duration(r io.Reader) (time.Duration, error) {
	d := mp3.NewDecoder(r)

	var (
		frame    mp3.Frame
		skipped  int
		duration time.Duration
		frames   int
	)
	for {
		err := d.Decode(&frame, &skipped)
		switch {
		case err == nil:
			duration += frame.Duration()
			frames++
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return duration, nil
		case frames > 0:
			return duration, nil
		default:
			return 0, err
		}
	}
}
