package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
)

// TrackFinder looks up non-deleted tracks by id. The SQLite TrackRepository satisfies it.
type TrackFinder interface {
	Get(id string) (*models.Track, error)
}

// StreamKind tags the variant held by a [Stream].
type StreamKind int

const (
	StreamExternal StreamKind = iota // client fetches URL itself
	StreamFull                       // whole local file, 200
	StreamPartial                    // byte window of a local file, 206
)

// Stream is the outcome of a successful [Streamer.Open].
//
// Full and partial streams hold an open file; Close must be called on every path.
type Stream struct {
	Kind    StreamKind
	TrackID string
	URL     string
	Range   ByteRange
	ModTime time.Time

	file *os.File
}

// ContentLength returns the number of body bytes for local streams.
func (s *Stream) ContentLength() int64 {
	if s.Kind == StreamExternal {
		return 0
	}
	return s.Range.Length()
}

// Copy writes the stream's byte window to w, stopping early when ctx is cancelled.
//
// Read failures are wrapped in [shared.ErrStreamingFailed]. Write failures (usually a client that went
// away) and cancellation are returned unwrapped.
func (s *Stream) Copy(ctx context.Context, w io.Writer) (int64, error) {
	if s.file == nil {
		return 0, nil
	}
	body := io.NewSectionReader(s.file, s.Range.Start, s.Range.Length())
	return io.Copy(w, &contextReader{ctx: ctx, r: body})
}

// Close releases the underlying file. It is safe on external streams and on repeated calls.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Streamer resolves tracks into servable streams.
type Streamer struct {
	tracks   TrackFinder
	resolver *Resolver
	logger   *log.Logger
	now      func() time.Time
}

// NewStreamer creates a Streamer. A nil logger falls back to [shared.NewLogger].
func NewStreamer(tracks TrackFinder, resolver *Resolver, logger *log.Logger) *Streamer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Streamer{tracks: tracks, resolver: resolver, logger: logger, now: time.Now}
}

// Open looks up trackID, resolves its location and applies rangeHeader.
//
// Errors match one of [shared.ErrTrackNotFound], [shared.ErrTrackFileNotFound],
// [shared.ErrRangeNotSatisfiable] (as a [*RangeError]) or [shared.ErrStreamingFailed].
func (s *Streamer) Open(ctx context.Context, trackID, rangeHeader string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !shared.IsValidID(trackID) {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, trackID)
	}

	track, err := s.tracks.Get(trackID)
	switch {
	case errors.Is(err, shared.ErrTrackNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: lookup %s: %v", shared.ErrStreamingFailed, trackID, err)
	case track == nil || track.IsDeleted():
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}

	loc, err := s.resolver.Resolve(track)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStreamingFailed, err)
	}

	switch loc.Kind {
	case External:
		return &Stream{Kind: StreamExternal, TrackID: trackID, URL: loc.URL}, nil
	case Missing:
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackFileNotFound, track.TrackURL())
	case Local:
		return s.openLocal(trackID, loc, rangeHeader)
	default:
		return nil, fmt.Errorf("%w: unknown location kind %d", shared.ErrStreamingFailed, loc.Kind)
	}
}

func (s *Streamer) openLocal(trackID string, loc Location, rangeHeader string) (*Stream, error) {
	window, err := ParseRange(rangeHeader, loc.Size)
	if err != nil {
		return nil, err
	}

	kind := StreamPartial
	if window == nil {
		kind = StreamFull
		window = &ByteRange{Start: 0, End: loc.Size - 1, Total: loc.Size}
	}

	f, err := os.Open(loc.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackFileNotFound, loc.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", shared.ErrStreamingFailed, loc.Path, err)
	}

	s.logger.Info("stream started",
		"track_id", trackID,
		"timestamp", s.now().UTC().Format(time.RFC3339),
		"bytes", window.Length(),
		"partial", kind == StreamPartial,
	)

	return &Stream{
		Kind:    kind,
		TrackID: trackID,
		Range:   *window,
		ModTime: loc.ModTime,
		file:    f,
	}, nil
}

// contextReader stops reading once ctx is done and tags read failures as streaming failures.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.r.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %v", shared.ErrStreamingFailed, err)
	}
	return n, err
}
