// Package server provides HTTP routing, middleware, and handlers for the media service API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally. Routes are registered as method-qualified
// patterns ("GET /api/tracks/{id}"), so the mux fills path values and GET routes also answer HEAD.
// Anything unmatched falls through to a JSON 404.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Streaming
//
// [StreamHandler] serves GET /api/tracks/{id}/stream. It delegates lookup, resolution and range parsing to
// media.Streamer and only translates the outcome into status codes, headers and bodies:
//
//	external track        200 JSON {success, data: {track_id, url, type: "external"}}
//	local, no Range       200 audio/mpeg, full body
//	local, valid Range    206 audio/mpeg, Content-Range: bytes a-b/total
//	local, invalid Range  416 Content-Range: bytes */total, empty body
//	missing or deleted    404 JSON "Track not found"
//	file missing on disk  404 JSON "Track file not found"
//	read failure          500 JSON "Error streaming track"
//
// Error bodies always use the [Envelope] shape.
//
// # Middleware
//
// [Recoverer] turns panics into a 500 envelope, [RequestLogger] writes one structured line per request,
// and [RateLimit] applies a token bucket per client address.
package server
