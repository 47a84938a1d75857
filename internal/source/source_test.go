package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// touch creates empty files under dir and returns their full paths
func touch(t *testing.T, dir string, names ...string) []string {
	t.Helper()

	paths := make([]string, len(names))
	for i, name := range names {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		paths[i] = p
	}
	return paths
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "c.ogg", "a.mp3", "notes.txt", "B.FLAC", "cover.jpg", "d.aac", "sub/e.mp3")

	res, err := NewResolver(nil).Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "B.FLAC"),
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "c.ogg"),
		filepath.Join(dir, "d.aac"),
	}
	if res.Kind != Directory {
		t.Errorf("Kind = %v, want directory", res.Kind)
	}
	if diff := cmp.Diff(want, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveDirectoryCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp3", "b.wav", "c.flac")

	res, err := NewResolver([]string{".WAV", "flac"}).Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{filepath.Join(dir, "b.wav"), filepath.Join(dir, "c.flac")}
	if diff := cmp.Diff(want, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	paths := touch(t, dir, "song.mp3")

	res, err := NewResolver(nil).Resolve(paths[0])
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Kind != File {
		t.Errorf("Kind = %v, want file", res.Kind)
	}
	if diff := cmp.Diff(paths, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvePlaylist(t *testing.T) {
	dir := t.TempDir()
	music := touch(t, dir, "music/one.mp3", "music/two.flac", "music/cover.png")
	outside := touch(t, t.TempDir(), "abs.ogg")

	content := strings.Join([]string{
		"# my list",
		"music/two.flac",
		"",
		"   ",
		"music/missing.mp3",
		outside[0],
		"music/cover.png",
		"music",
		`"music/one.mp3"`,
	}, "\n")

	listPath := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write playlist: %v", err)
	}

	res, err := NewResolver(nil).Resolve(listPath)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if res.Kind != Playlist {
		t.Errorf("Kind = %v, want playlist", res.Kind)
	}

	want := []string{music[1], outside[0], music[0]}
	if diff := cmp.Diff(want, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}

	if len(res.Warnings) != 3 {
		t.Fatalf("got %d warnings, want 3: %v", len(res.Warnings), res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "missing.mp3") {
		t.Errorf("first warning = %q, want mention of missing.mp3", res.Warnings[0])
	}
}

func TestResolveM3U(t *testing.T) {
	dir := t.TempDir()
	music := touch(t, dir, "a.mp3")

	listPath := filepath.Join(dir, "list.m3u8")
	content := "#EXTM3U\n#EXTINF:123,Artist - Title\na.mp3\n"
	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write playlist: %v", err)
	}

	res, err := NewResolver(nil).Resolve(listPath)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if diff := cmp.Diff(music, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestResolveGlob(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp3", "a.mp3", "c.flac", "d.txt")

	res, err := NewResolver(nil).Resolve(filepath.Join(dir, "*.mp3"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.mp3"), filepath.Join(dir, "b.mp3")}
	if res.Kind != Glob {
		t.Errorf("Kind = %v, want glob", res.Kind)
	}
	if diff := cmp.Diff(want, res.Paths); diff != "" {
		t.Errorf("Paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "missing path", input: filepath.Join(t.TempDir(), "nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(nil).Resolve(tt.input)
			if !errors.Is(err, ErrUnreadableSource) {
				t.Errorf("Resolve(%q) error = %v, want ErrUnreadableSource", tt.input, err)
			}
		})
	}
}

func TestResolveEmptyDirectory(t *testing.T) {
	res, err := NewResolver(nil).Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(res.Paths) != 0 {
		t.Errorf("Paths = %v, want none", res.Paths)
	}
}
