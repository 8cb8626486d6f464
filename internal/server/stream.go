package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/media"
	"github.com/desertthunder/auraspace/internal/shared"
)

const (
	audioContentType  = "audio/mpeg"
	audioCacheControl = "public, max-age=3600"
)

// ExternalTrack is the data payload returned for tracks hosted at an absolute URL.
type ExternalTrack struct {
	TrackID string `json:"track_id"`
	URL     string `json:"url"`
	Type    string `json:"type"`
}

// Opener produces a [media.Stream] for a track id and Range header. [media.Streamer] implements it.
type Opener interface {
	Open(ctx context.Context, trackID, rangeHeader string) (*media.Stream, error)
}

// StreamHandler serves track audio with HTTP byte-range support.
type StreamHandler struct {
	streams Opener
	logger  *log.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(streams Opener, logger *log.Logger) *StreamHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StreamHandler{streams: streams, logger: shared.WithLogger(logger, "handler", "stream")}
}

// Routes returns the HTTP routes this handler serves.
func (h *StreamHandler) Routes() []string {
	return []string{"GET /api/tracks/{id}/stream"}
}

// ServeHTTP streams the track named by the {id} path value.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	stream, err := h.streams.Open(r.Context(), id, r.Header.Get("Range"))
	if err != nil {
		h.fail(w, id, err)
		return
	}
	defer stream.Close()

	if stream.Kind == media.StreamExternal {
		writeData(w, ExternalTrack{TrackID: id, URL: stream.URL, Type: "external"})
		return
	}

	header := w.Header()
	header.Set("Content-Type", audioContentType)
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", audioCacheControl)
	header.Set("Content-Length", strconv.FormatInt(stream.ContentLength(), 10))

	status := http.StatusOK
	if stream.Kind == media.StreamPartial {
		header.Set("Content-Range", stream.Range.ContentRange())
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	sent, err := stream.Copy(r.Context(), w)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrStreamingFailed):
		h.logger.Error("stream interrupted",
			"track_id", id,
			"timestamp", time.Now().UTC().Format(time.RFC3339),
			"sent", sent,
			"error", err,
		)
	default:
		h.logger.Debug("client stopped reading", "track_id", id, "sent", sent, "error", err)
	}
}

// fail writes the response for an error returned by [Opener.Open].
func (h *StreamHandler) fail(w http.ResponseWriter, id string, err error) {
	var rangeErr *media.RangeError

	switch {
	case errors.As(err, &rangeErr):
		w.Header().Set("Content-Range", rangeErr.ContentRange())
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	case errors.Is(err, shared.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "Track not found")
	case errors.Is(err, shared.ErrTrackFileNotFound):
		h.logger.Warn("track file missing", "track_id", id, "error", err)
		writeError(w, http.StatusNotFound, "Track file not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug("request cancelled before streaming", "track_id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		h.logger.Error("failed to open stream",
			"track_id", id,
			"timestamp", time.Now().UTC().Format(time.RFC3339),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Error streaming track")
	}
}
