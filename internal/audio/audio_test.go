package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestGain(t *testing.T) {
	tests := []struct {
		name       string
		volume     int
		wantLevel  float64
		wantSilent bool
	}{
		{name: "full volume is unity", volume: 100, wantLevel: 0},
		{name: "half volume halves amplitude", volume: 50, wantLevel: -1},
		{name: "quarter volume", volume: 25, wantLevel: -2},
		{name: "zero is silent", volume: 0, wantSilent: true},
		{name: "negative is silent", volume: -5, wantSilent: true},
		{name: "above range is clamped", volume: 150, wantLevel: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, silent := gain(tt.volume)
			if silent != tt.wantSilent {
				t.Errorf("gain(%d) silent = %v, want %v", tt.volume, silent, tt.wantSilent)
			}
			if !silent && math.Abs(level-tt.wantLevel) > 1e-9 {
				t.Errorf("gain(%d) level = %v, want %v", tt.volume, level, tt.wantLevel)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "aac has no decoder", path: write("song.aac", "data"), want: ErrUnsupportedFormat},
		{name: "unknown extension", path: write("song.xyz", "data"), want: ErrUnsupportedFormat},
		{name: "missing file", path: filepath.Join(dir, "gone.mp3"), want: ErrUnreadable},
		{name: "corrupt wav", path: write("bad.wav", "this is not a riff header"), want: ErrUnreadable},
		{name: "corrupt flac", path: write("bad.flac", "garbage"), want: ErrUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decode(tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("decode(%s) error = %v, want %v", filepath.Base(tt.path), err, tt.want)
			}
		})
	}
}
