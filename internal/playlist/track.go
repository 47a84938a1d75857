package playlist

import (
	"path/filepath"
	"strings"
)

// Track identifies a single playable file. Display metadata is resolved
// separately and cached by path.
type Track struct {
	Path string
}

// Name returns the file name without its extension
func (t Track) Name() string {
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ext returns the lower-cased extension without the leading dot
func (t Track) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(t.Path), "."))
}

// FromPaths wraps each path in a Track
func FromPaths(paths []string) []Track {
	tracks := make([]Track, len(paths))
	for i, p := range paths {
		tracks[i] = Track{Path: p}
	}
	return tracks
}
