// Package library registers audio files found under the media root as tracks.
//
// [Scanner.Import] walks the root for .mp3 files, reads ID3 tags and frame durations, and creates a
// track for every file whose relative path is not yet stored. A [Watcher] re-runs the import when
// files land in the root while the server is running.
package library
