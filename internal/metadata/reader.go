package metadata

import (
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Tags is the raw display metadata read from a file. Any field may be empty.
type Tags struct {
	Title  string
	Artist string
	Album  string
}

// Reader reads display metadata from an audio file
type Reader interface {
	Read(path string) (Tags, error)
}

// TagReader reads ID3, MP4, FLAC and Vorbis comment tags
type TagReader struct{}

// Read opens the file and parses its tags
func (TagReader) Read(path string) (Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	md, err := tag.ReadFrom(file)
	if err != nil {
		return Tags{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	artist := md.Artist()
	if artist == "" {
		artist = md.AlbumArtist()
	}

	return Tags{
		Title:  md.Title(),
		Artist: artist,
		Album:  md.Album(),
	}, nil
}
