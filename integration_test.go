//go:build integration
// +build integration

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func buildBinary(t *testing.T) string {
	t.Helper()

	bin := filepath.Join(t.TempDir(), "ttyplay_test")
	buildCmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, out)
	}
	return bin
}

// isolated runs the binary with a throwaway HOME so no user config,
// log file or history database is touched
func isolated(bin string, args ...string) *exec.Cmd {
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), "HOME="+os.TempDir()+"/ttyplay-it-home")
	return cmd
}

// TestPlayFailsBeforeTouchingTerminal checks the startup errors that must
// exit non-zero without entering raw mode
func TestPlayFailsBeforeTouchingTerminal(t *testing.T) {
	bin := buildBinary(t)
	empty := t.TempDir()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "empty directory", args: []string{empty}, wantErr: "no playable tracks"},
		{name: "missing path", args: []string{filepath.Join(empty, "nope.mp3")}, wantErr: "nope.mp3"},
		{name: "volume out of range", args: []string{"--volume", "0", empty}, wantErr: "volume must be between 1 and 100"},
		{name: "no source", args: nil, wantErr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := isolated(bin, tt.args...).CombinedOutput()
			if err == nil {
				t.Fatalf("expected non-zero exit, output:\n%s", out)
			}
			if !strings.Contains(string(out), tt.wantErr) {
				t.Errorf("output missing %q:\n%s", tt.wantErr, out)
			}
		})
	}
}

// TestPlayWithoutTerminal runs against a real track list with stdin not a
// terminal, which must fail cleanly after resolving
func TestPlayWithoutTerminal(t *testing.T) {
	bin := buildBinary(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp3"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	cmd := isolated(bin, "--simple", dir)
	cmd.Stdin = strings.NewReader("")
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit, output:\n%s", out)
	}
	if !strings.Contains(string(out), "terminal") {
		t.Errorf("output should mention the terminal:\n%s", out)
	}
}

// TestListCommand resolves a playlist and prints it in order
func TestListCommand(t *testing.T) {
	bin := buildBinary(t)
	dir := t.TempDir()
	for _, name := range []string{"one.mp3", "two.flac"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	list := filepath.Join(dir, "list.m3u")
	if err := os.WriteFile(list, []byte("two.flac\nmissing.mp3\none.mp3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := isolated(bin, "list", "--format", "{{.Index}} {{.Name}}", list)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("list failed: %v\n%s", err, stderr.String())
	}

	if got, want := stdout.String(), "1 two\n2 one\n"; got != want {
		t.Errorf("list output = %q, want %q", got, want)
	}
	if !strings.Contains(stderr.String(), "missing.mp3") {
		t.Errorf("stderr should report the missing entry:\n%s", stderr.String())
	}
}
