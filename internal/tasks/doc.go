// Package tasks runs long library operations with progress reporting.
//
// # Audit
//
// [Auditor.Run] checks that every registered track can still be served:
//
//  1. Local tracks must resolve to a regular file under the media root
//  2. External tracks must answer a probe from a [services.Prober]
//
// Checks run on a small worker pool. External probes share one token bucket so a library
// full of links to the same host does not hammer it.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking, so a slow or absent reader never stalls work.
package tasks
