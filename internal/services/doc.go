// Package services talks to the hosts behind external track URLs.
//
// Tracks whose track_url is an absolute http(s) URL are never proxied: the stream endpoint hands the
// URL to the client. [HTTPProber] checks such URLs out of band so dead links can be found before a
// listener does.
//
// # Probing
//
// A probe sends HEAD and falls back to a one-byte ranged GET when the host rejects HEAD
// (405 or 501). Any 2xx answer, including 206, counts as reachable. Transport errors and other
// statuses wrap [shared.ErrSourceUnreachable].
package services
