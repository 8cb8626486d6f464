package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/auraspace/internal/models"
)

// Kind tags the variant held by a [Location].
type Kind int

const (
	Missing  Kind = iota // no regular file backs a local track
	External             // absolute http(s) URL, served by its own host
	Local                // regular file under the media root
)

func (k Kind) String() string {
	switch k {
	case External:
		return "external"
	case Local:
		return "local"
	default:
		return "missing"
	}
}

// Location is where a track's audio lives, computed fresh for every request.
//
// URL is set for [External]; Path, Size and ModTime are set for [Local].
type Location struct {
	Kind    Kind
	URL     string
	Path    string
	Size    int64
	ModTime time.Time
}

// Resolver maps track_url values onto the media root.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver for files under root. The root is made absolute but need not exist yet.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root %q: %w", root, err)
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute media root.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns the absolute path for a local filename, or false when the name is absolute,
// empty, or would climb out of the media root.
func (r *Resolver) Path(name string) (string, bool) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.Join(r.root, rel), true
}

// Resolve classifies track. External tracks never touch the filesystem; local tracks cost a stat
// plus symlink evaluation.
//
// A stat failure other than "does not exist" is returned as an error. A symlink whose target lies
// outside the media root resolves to [Missing].
func (r *Resolver) Resolve(track *models.Track) (Location, error) {
	if track.IsExternal() {
		return Location{Kind: External, URL: track.TrackURL()}, nil
	}

	path, ok := r.Path(track.TrackURL())
	if !ok {
		return Location{Kind: Missing}, nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Location{Kind: Missing, Path: path}, nil
	}
	if err != nil {
		return Location{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() || !r.contains(path) {
		return Location{Kind: Missing, Path: path}, nil
	}

	return Location{Kind: Local, Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// contains reports whether path, with symlinks evaluated, still lies under the evaluated root.
func (r *Resolver) contains(path string) bool {
	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		return false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, target)
	return err == nil && filepath.IsLocal(rel)
}
