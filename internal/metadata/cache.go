// Package metadata resolves and memoizes display metadata for tracks.
package metadata

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Info is what the status line shows for a track. Title is never empty.
type Info struct {
	Title  string
	Artist string
	Album  string
}

// Display returns "title - artist", or just the title when the artist is unknown
func (i Info) Display() string {
	if i.Artist == "" {
		return i.Title
	}
	return i.Title + " - " + i.Artist
}

// Cache memoizes Info per path for the lifetime of the process.
//
// Reads happen outside the lock, so two goroutines resolving the same path
// may both hit the Reader. The first stored value wins and every later
// call returns it.
type Cache struct {
	reader Reader
	logger zerolog.Logger

	mu      sync.RWMutex
	entries map[string]Info
}

// NewCache creates a Cache backed by reader
func NewCache(reader Reader, logger zerolog.Logger) *Cache {
	return &Cache{
		reader:  reader,
		logger:  logger.With().Str("component", "metadata").Logger(),
		entries: make(map[string]Info),
	}
}

// Resolve returns the cached Info for path, reading it on first use.
// A failed read or an empty title falls back to the file name.
func (c *Cache) Resolve(path string) Info {
	if info, ok := c.Lookup(path); ok {
		return info
	}

	tags, err := c.read(path)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("No metadata, using file name")
		tags = Tags{}
	}

	info := Info{
		Title:  strings.TrimSpace(tags.Title),
		Artist: strings.TrimSpace(tags.Artist),
		Album:  strings.TrimSpace(tags.Album),
	}
	if info.Title == "" {
		info.Title = fileTitle(path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[path]; ok {
		return existing
	}
	c.entries[path] = info
	return info
}

// read calls the Reader, turning a panic on a malformed file into an error.
// Resolve also runs on prefetch goroutines nothing else recovers.
func (c *Cache) read(path string) (tags Tags, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().Str("path", path).Interface("panic", r).Msg("Tag reader panicked")
			tags, err = Tags{}, fmt.Errorf("tag reader panicked: %v", r)
		}
	}()
	return c.reader.Read(path)
}

// Lookup returns the cached Info without reading the file
func (c *Cache) Lookup(path string) (Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.entries[path]
	return info, ok
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func fileTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
