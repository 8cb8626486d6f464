package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/auraspace/internal/shared"
)

// Track is a persisted audio track.
//
// A track with a non-nil deletedAt is soft-deleted and is invisible to every consumer-facing lookup.
type Track struct {
	id        string
	sequence  int
	title     string
	artist    string
	album     string
	duration  int
	trackURL  string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// TrackInfo carries the user-supplied fields of a [Track].
type TrackInfo struct {
	Title    string
	Artist   string
	Album    string
	Duration int // seconds
	TrackURL string
}

// NewTrack creates an unsaved [Track] with creation timestamps set to now.
func NewTrack(sequence int, info TrackInfo) *Track {
	now := time.Now()
	return &Track{
		sequence:  sequence,
		title:     strings.TrimSpace(info.Title),
		artist:    strings.TrimSpace(info.Artist),
		album:     strings.TrimSpace(info.Album),
		duration:  info.Duration,
		trackURL:  strings.TrimSpace(info.TrackURL),
		createdAt: now,
		updatedAt: now,
	}
}

func (t *Track) ID() string            { return t.id }
func (t *Track) Sequence() int         { return t.sequence }
func (t *Track) Title() string         { return t.title }
func (t *Track) Artist() string        { return t.artist }
func (t *Track) Album() string         { return t.album }
func (t *Track) Duration() int         { return t.duration }
func (t *Track) TrackURL() string      { return t.trackURL }
func (t *Track) CreatedAt() time.Time  { return t.createdAt }
func (t *Track) UpdatedAt() time.Time  { return t.updatedAt }
func (t *Track) DeletedAt() *time.Time { return t.deletedAt }

func (t *Track) SetID(id string)                   { t.id = id }
func (t *Track) SetSequence(sequence int)          { t.sequence = sequence }
func (t *Track) SetTitle(title string)             { t.title = strings.TrimSpace(title) }
func (t *Track) SetArtist(artist string)           { t.artist = strings.TrimSpace(artist) }
func (t *Track) SetAlbum(album string)             { t.album = strings.TrimSpace(album) }
func (t *Track) SetDuration(seconds int)           { t.duration = seconds }
func (t *Track) SetTrackURL(location string)       { t.trackURL = strings.TrimSpace(location) }
func (t *Track) SetCreatedAt(createdAt time.Time)  { t.createdAt = createdAt }
func (t *Track) SetUpdatedAt(updatedAt time.Time)  { t.updatedAt = updatedAt }
func (t *Track) SetDeletedAt(deletedAt *time.Time) { t.deletedAt = deletedAt }

// IsDeleted reports whether the track has been soft-deleted.
func (t *Track) IsDeleted() bool { return t.deletedAt != nil }

// IsExternal reports whether the track is hosted at an absolute http(s) URL.
func (t *Track) IsExternal() bool { return shared.IsExternalURL(t.trackURL) }

// Validate checks required fields.
func (t *Track) Validate() error {
	if t.id == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	if t.title == "" {
		return fmt.Errorf("%w: track title is required", shared.ErrInvalidInput)
	}
	if t.trackURL == "" {
		return fmt.Errorf("%w: track_url is required", shared.ErrInvalidInput)
	}
	if t.duration < 0 {
		return fmt.Errorf("%w: duration must not be negative", shared.ErrInvalidInput)
	}
	return nil
}

type trackJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album,omitempty"`
	Duration  int       `json:"duration"`
	TrackURL  string    `json:"track_url"`
	External  bool      `json:"external"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarshalJSON renders the public fields of a track for API responses.
func (t *Track) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackJSON{
		ID:        t.id,
		Title:     t.title,
		Artist:    t.artist,
		Album:     t.album,
		Duration:  t.duration,
		TrackURL:  t.trackURL,
		External:  t.IsExternal(),
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
	})
}
