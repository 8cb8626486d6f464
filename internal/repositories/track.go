package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
)

const trackColumns = `id, sequence, title, artist, album, duration, track_url, created_at, updated_at, deleted_at`

// externalPredicate matches [shared.IsExternalURL]; LIKE would be case-insensitive in SQLite.
const externalPredicate = `(substr(track_url, 1, 7) = 'http://' OR substr(track_url, 1, 8) = 'https://')`

// TrackRepository implements [models.Repository] for [models.Track].
//
// Every read excludes soft-deleted rows, so a deleted track is indistinguishable from one that never existed.
type TrackRepository struct {
	db        *sql.DB
	closeOnce sync.Once
	closeErr  error
}

var _ models.Repository[*models.Track] = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Close releases the underlying connection pool. Calls after the first return the first result.
func (r *TrackRepository) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.db.Close()
	})
	return r.closeErr
}

// Create inserts a new [models.Track] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.Track) error {
	track.SetID(shared.GenerateID())

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.SetSequence(sequence)

	query := `
		INSERT INTO tracks (id, sequence, title, artist, album, duration, track_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.ID(),
		track.Sequence(),
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Duration(),
		track.TrackURL(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks.
//
// Ids that are not UUIDs are reported as [shared.ErrTrackNotFound] without querying.
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	if !shared.IsValidID(id) {
		return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, id)
	}

	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`

	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetByURL retrieves the first non-deleted track stored with the given track_url
func (r *TrackRepository) GetByURL(location string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE track_url = ? AND deleted_at IS NULL ORDER BY sequence ASC LIMIT 1`

	return r.scanOne(r.db.QueryRow(query, location), location)
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration = ?, track_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.Album(),
		track.Duration(),
		track.TrackURL(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return expectAffected(result, track.ID())
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	if !shared.IsValidID(id) {
		return fmt.Errorf("%w: %q", shared.ErrTrackNotFound, id)
	}

	query := `UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks.
//
// Supported criteria: "artist" (string, exact match) and "external" (bool).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if external, ok := criteria["external"].(bool); ok {
		if external {
			query += " AND " + externalPredicate
		} else {
			query += " AND NOT " + externalPredicate
		}
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanOne scans a single [sql.Row], translating [sql.ErrNoRows] into [shared.ErrTrackNotFound]
func (r *TrackRepository) scanOne(row *sql.Row, key string) (*models.Track, error) {
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, key)
	}
	return track, err
}

func scanTrack(row scanner) (*models.Track, error) {
	var (
		id        string
		sequence  int
		title     string
		artist    string
		album     string
		duration  int
		trackURL  string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &title, &artist, &album, &duration, &trackURL, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.NewTrack(sequence, models.TrackInfo{
		Title:    title,
		Artist:   artist,
		Album:    album,
		Duration: duration,
		TrackURL: trackURL,
	})
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s (already deleted or never created)", shared.ErrTrackNotFound, id)
	}
	return nil
}
