// Package repositories implements SQLite persistence for the media service's domain entities.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// Soft deletes are expressed as a deleted_at timestamp, and the "deleted = not found" policy lives in each
// lookup's WHERE clause rather than in callers.
//
// Key Implementations:
//   - [TrackRepository] : Track persistence with lookups by id and by track_url
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
