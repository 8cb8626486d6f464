package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
)

// TrackReader is the read side of the track repository.
type TrackReader interface {
	Get(id string) (*models.Track, error)
	List(criteria map[string]any) ([]*models.Track, error)
}

// TrackHandler serves track metadata.
type TrackHandler struct {
	tracks TrackReader
	logger *log.Logger
}

// NewTrackHandler creates a TrackHandler.
func NewTrackHandler(tracks TrackReader, logger *log.Logger) *TrackHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TrackHandler{tracks: tracks, logger: shared.WithLogger(logger, "handler", "tracks")}
}

// Routes returns the HTTP routes this handler serves.
func (h *TrackHandler) Routes() []string {
	return []string{"GET /api/tracks", "GET /api/tracks/{id}"}
}

// ServeHTTP lists tracks, or returns one when the {id} path value is present.
//
// The list accepts ?artist= and ?external=true|false filters.
func (h *TrackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id := r.PathValue("id"); id != "" {
		h.get(w, id)
		return
	}
	h.list(w, r)
}

func (h *TrackHandler) get(w http.ResponseWriter, id string) {
	track, err := h.tracks.Get(id)
	switch {
	case errors.Is(err, shared.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, "Track not found")
	case err != nil:
		h.logger.Error("failed to get track", "track_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching track")
	default:
		writeData(w, track)
	}
}

func (h *TrackHandler) list(w http.ResponseWriter, r *http.Request) {
	criteria := map[string]any{}
	query := r.URL.Query()

	if artist := query.Get("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if raw := query.Get("external"); raw != "" {
		external, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "external must be true or false")
			return
		}
		criteria["external"] = external
	}

	tracks, err := h.tracks.List(criteria)
	if err != nil {
		h.logger.Error("failed to list tracks", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching tracks")
		return
	}
	if tracks == nil {
		tracks = []*models.Track{}
	}

	writeData(w, tracks)
}

// HealthHandler reports liveness.
type HealthHandler struct{}

// Routes returns the HTTP routes this handler serves.
func (HealthHandler) Routes() []string {
	return []string{"GET /api/health"}
}

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}
