// Package media turns a track id and an optional Range header into something servable.
//
// # Resolution
//
// A [Resolver] classifies a track's stored location. Absolute http(s) URLs become [External] locations
// that are never touched on disk. Anything else is a filename under the media root: it becomes [Local]
// with the current on-disk size, or [Missing] when no regular file exists at that path.
//
// # Ranges
//
// [ParseRange] implements the single-range subset of RFC 7233 byte serving. Absent, malformed and
// multi-range headers all mean "no range" and the full file is served. Windows that start past the
// end of the file, or end before they start, yield a [*RangeError].
//
// # Streaming
//
// [Streamer.Open] runs lookup, resolution and range computation and returns a [Stream]. Local streams
// own an open read-only file that the caller must close on every path, including client disconnects.
// Nothing is shared between calls, so concurrent requests need no locking.
package media
