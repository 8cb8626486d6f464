// Package models defines domain entities and persistence interfaces for the AuraSpace media service.
//
// The package currently holds one persistent entity:
//   - [Track] : An audio track whose track_url is either an absolute http(s) URL hosted elsewhere
//     or a filename under the local media root.
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
