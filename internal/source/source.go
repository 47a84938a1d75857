// Package source turns a command-line input into an ordered list of audio
// file paths. A source is a single file, a directory, a playlist file or a
// glob pattern.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ErrUnreadableSource is returned when the input path cannot be read
var ErrUnreadableSource = errors.New("cannot read source")

// DefaultExtensions are the audio extensions picked up from directories
var DefaultExtensions = []string{"mp3", "flac", "ogg", "aac"}

// playlistExtensions mark files whose lines are paths to other files
var playlistExtensions = []string{"txt", "m3u", "m3u8"}

// Kind describes how an input was interpreted
type Kind int

const (
	File Kind = iota
	Directory
	Playlist
	Glob
)

// String returns a human-readable representation of the Kind
func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Playlist:
		return "playlist"
	case Glob:
		return "glob"
	default:
		return "unknown"
	}
}

// Result is a resolved source. Warnings describe entries that were skipped.
type Result struct {
	Kind     Kind
	Paths    []string
	Warnings []string
}

// Resolver resolves inputs against a set of supported extensions
type Resolver struct {
	extensions []string
}

// NewResolver creates a Resolver. Extensions are matched case-insensitively
// with or without a leading dot. An empty list selects DefaultExtensions.
func NewResolver(extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	normalized := lo.Uniq(lo.Map(extensions, func(ext string, _ int) string {
		return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}))

	return &Resolver{
		extensions: lo.Filter(normalized, func(ext string, _ int) bool {
			return ext != ""
		}),
	}
}

// Extensions returns the normalized list of supported extensions
func (r *Resolver) Extensions() []string {
	return append([]string(nil), r.extensions...)
}

// Supported reports whether path has a supported audio extension
func (r *Resolver) Supported(path string) bool {
	return lo.Contains(r.extensions, extensionOf(path))
}

// Resolve interprets input and returns the ordered list of paths.
// Directory and glob results are sorted lexicographically. Playlist order
// is preserved.
func (r *Resolver) Resolve(input string) (*Result, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnreadableSource)
	}

	info, err := os.Stat(input)
	if err != nil {
		if isPattern(input) {
			return r.resolveGlob(input)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}

	if info.IsDir() {
		return r.resolveDirectory(input)
	}

	if lo.Contains(playlistExtensions, extensionOf(input)) {
		return r.resolvePlaylist(input)
	}

	return &Result{Kind: File, Paths: []string{input}}, nil
}

// resolveDirectory lists the directory's regular files (non-recursive)
func (r *Resolver) resolveDirectory(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}

	files := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && r.Supported(e.Name())
	})

	paths := lo.Map(files, func(e os.DirEntry, _ int) string {
		return filepath.Join(dir, e.Name())
	})
	sort.Strings(paths)

	return &Result{Kind: Directory, Paths: paths}, nil
}

// resolvePlaylist reads one path per line, skipping blanks and # comments.
// Relative entries are taken relative to the playlist's directory.
func (r *Resolver) resolvePlaylist(path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	defer func() {
		_ = file.Close()
	}()

	base := filepath.Dir(path)
	result := &Result{Kind: Playlist}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.Trim(line, `"`)

		entry := line
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(base, entry)
		}

		info, err := os.Stat(entry)
		switch {
		case err != nil:
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %s: file not found", lineNo, line))
		case info.IsDir():
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %s: is a directory", lineNo, line))
		case !r.Supported(entry):
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %s: unsupported format", lineNo, line))
		default:
			result.Paths = append(result.Paths, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}

	return result, nil
}

// resolveGlob expands a shell pattern into supported regular files
func (r *Resolver) resolveGlob(pattern string) (*Result, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %w", ErrUnreadableSource, pattern, err)
	}

	paths := lo.Filter(matches, func(m string, _ int) bool {
		info, err := os.Stat(m)
		return err == nil && info.Mode().IsRegular() && r.Supported(m)
	})
	sort.Strings(paths)

	return &Result{Kind: Glob, Paths: paths}, nil
}

func extensionOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
