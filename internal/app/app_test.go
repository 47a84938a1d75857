package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jfmyers9/ttyplay/internal/audio"
	"github.com/jfmyers9/ttyplay/internal/history"
	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/jfmyers9/ttyplay/internal/playlist"
	"github.com/jfmyers9/ttyplay/internal/source"
	"github.com/rs/zerolog"
)

type fakeResolver struct {
	res *source.Result
	err error
}

func (r fakeResolver) Resolve(string) (*source.Result, error) {
	return r.res, r.err
}

type noTags struct{}

func (noTags) Read(string) (metadata.Tags, error) {
	return metadata.Tags{}, errors.New("no tags")
}

type fakeSink struct {
	mu        sync.Mutex
	stopCalls int
}

func (s *fakeSink) Pause()                  {}
func (s *fakeSink) Resume()                 {}
func (s *fakeSink) SetVolume(int, bool)     {}
func (s *fakeSink) Position() time.Duration { return time.Second }
func (s *fakeSink) Duration() time.Duration { return time.Minute }

func (s *fakeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
}

func (s *fakeSink) stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCalls
}

// fakeDevice hands out sinks, optionally finishing each one right away
type fakeDevice struct {
	mu         sync.Mutex
	autoFinish bool
	openErr    error
	openPanic  bool
	sinks      []*fakeSink
	closeCalls int
}

func (d *fakeDevice) Open(path string, opts audio.OpenOptions) (audio.Sink, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openPanic {
		panic("decoder blew up")
	}
	if d.openErr != nil {
		return nil, d.openErr
	}
	s := &fakeSink{}
	d.sinks = append(d.sinks, s)
	if d.autoFinish {
		go opts.OnFinished()
	}
	return s, nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	return nil
}

func (d *fakeDevice) opened() []*fakeSink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeSink(nil), d.sinks...)
}

type fakeConsole struct {
	mu           sync.Mutex
	out          bytes.Buffer
	keys         io.Reader
	widthPanic   bool
	restoreCalls int
}

func (c *fakeConsole) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}

func (c *fakeConsole) Keys() io.Reader { return c.keys }

func (c *fakeConsole) Width() int {
	if c.widthPanic {
		panic("terminal went away")
	}
	return 80
}

func (c *fakeConsole) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreCalls++
	return nil
}

func (c *fakeConsole) restores() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restoreCalls
}

func (c *fakeConsole) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

// idleKeys returns a key reader that blocks until the test ends
func idleKeys(t *testing.T) io.Reader {
	t.Helper()
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	return r
}

type fakeHistory struct {
	mu         sync.Mutex
	plays      []history.Play
	cleanedAge time.Duration
	closeCalls int
}

func (h *fakeHistory) Record(_ context.Context, p history.Play) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plays = append(h.plays, p)
	return int64(len(h.plays)), nil
}

func (h *fakeHistory) Cleanup(_ context.Context, maxAge time.Duration) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanedAge = maxAge
	return 0, nil
}

func (h *fakeHistory) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls++
	return nil
}

func threeTracks() fakeResolver {
	return fakeResolver{res: &source.Result{
		Kind:  source.Directory,
		Paths: []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3"},
	}}
}

func testConfig() Config {
	return Config{
		Source:      "/music",
		Mode:        playlist.Sequential,
		Volume:      70,
		RefreshRate: 5 * time.Millisecond,
	}
}

func newTestApp(t *testing.T, cfg Config, resolver SourceResolver, deps Deps) *App {
	t.Helper()
	if deps.Meta == nil {
		deps.Meta = metadata.NewCache(noTags{}, zerolog.Nop())
	}
	a, err := New(cfg, resolver, deps, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func runWithTimeout(t *testing.T, a *App, console Console) error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background(), console) }()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
		return nil
	}
}

func TestNewEmptyInput(t *testing.T) {
	resolver := fakeResolver{res: &source.Result{
		Kind:     source.Playlist,
		Warnings: []string{"missing.mp3: not found"},
	}}

	_, err := New(testConfig(), resolver, Deps{}, zerolog.Nop())
	if !errors.Is(err, playlist.ErrEmptyInput) {
		t.Fatalf("New() error = %v, want ErrEmptyInput", err)
	}
}

func TestNewUnreadableSource(t *testing.T) {
	resolver := fakeResolver{err: source.ErrUnreadableSource}

	_, err := New(testConfig(), resolver, Deps{}, zerolog.Nop())
	if !errors.Is(err, source.ErrUnreadableSource) {
		t.Fatalf("New() error = %v, want ErrUnreadableSource", err)
	}
}

func TestNewKeepsWarningsAndTracks(t *testing.T) {
	resolver := threeTracks()
	resolver.res.Warnings = []string{"cover.jpg: unsupported format"}

	a := newTestApp(t, testConfig(), resolver, Deps{Opener: &fakeDevice{}})

	if diff := cmp.Diff(resolver.res.Warnings, a.Warnings()); diff != "" {
		t.Errorf("Warnings() mismatch (-want +got):\n%s", diff)
	}
	if got := len(a.Tracks()); got != 3 {
		t.Errorf("len(Tracks()) = %d, want 3", got)
	}
}

func TestRunQuitWhilePaused(t *testing.T) {
	device := &fakeDevice{}
	console := &fakeConsole{keys: strings.NewReader("pq")}
	a := newTestApp(t, testConfig(), threeTracks(), Deps{Opener: device})

	if err := runWithTimeout(t, a, console); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	sinks := device.opened()
	if len(sinks) != 1 {
		t.Fatalf("opened %d sinks, want 1", len(sinks))
	}
	if got := sinks[0].stops(); got != 1 {
		t.Errorf("sink stopped %d times, want 1", got)
	}
	if got := console.restores(); got != 1 {
		t.Errorf("console restored %d times, want 1", got)
	}
	if device.closeCalls != 1 {
		t.Errorf("device closed %d times, want 1", device.closeCalls)
	}
	if !strings.Contains(console.output(), "a") {
		t.Errorf("no status line drawn, output = %q", console.output())
	}
}

func TestRunAllTracksUnreadable(t *testing.T) {
	device := &fakeDevice{openErr: audio.ErrUnreadable}
	console := &fakeConsole{keys: idleKeys(t)}
	a := newTestApp(t, testConfig(), threeTracks(), Deps{Opener: device})

	err := runWithTimeout(t, a, console)
	if !errors.Is(err, player.ErrNoPlayableTracks) {
		t.Fatalf("Run() error = %v, want ErrNoPlayableTracks", err)
	}
	if got := console.restores(); got != 1 {
		t.Errorf("console restored %d times, want 1", got)
	}
}

func TestRunAudioUnavailable(t *testing.T) {
	device := &fakeDevice{openErr: audio.ErrAudioUnavailable}
	console := &fakeConsole{keys: idleKeys(t)}
	a := newTestApp(t, testConfig(), threeTracks(), Deps{Opener: device})

	err := runWithTimeout(t, a, console)
	if !errors.Is(err, audio.ErrAudioUnavailable) {
		t.Fatalf("Run() error = %v, want ErrAudioUnavailable", err)
	}
	if got := console.restores(); got != 1 {
		t.Errorf("console restored %d times, want 1", got)
	}
}

func TestRunExitOnEnd(t *testing.T) {
	device := &fakeDevice{autoFinish: true}
	console := &fakeConsole{keys: idleKeys(t)}

	cfg := testConfig()
	cfg.ExitOnEnd = true
	a := newTestApp(t, cfg, threeTracks(), Deps{Opener: device})

	if err := runWithTimeout(t, a, console); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(device.opened()); got != 3 {
		t.Errorf("opened %d sinks, want 3", got)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	device := &fakeDevice{autoFinish: true}
	console := &fakeConsole{keys: idleKeys(t)}
	store := &fakeHistory{}

	cfg := testConfig()
	cfg.ExitOnEnd = true
	cfg.HistoryRetention = 48 * time.Hour
	a := newTestApp(t, cfg, threeTracks(), Deps{Opener: device, History: store})

	if err := runWithTimeout(t, a, console); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	var got []string
	for _, p := range store.plays {
		got = append(got, p.Title+":"+string(p.Outcome))
	}
	want := []string{"a:finished", "b:finished", "c:finished"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recorded plays mismatch (-want +got):\n%s", diff)
	}

	sessions := map[string]bool{}
	for _, p := range store.plays {
		sessions[p.Session] = true
	}
	if len(sessions) != 1 {
		t.Errorf("plays span %d sessions, want 1", len(sessions))
	}

	if store.cleanedAge != 48*time.Hour {
		t.Errorf("Cleanup maxAge = %v, want 48h", store.cleanedAge)
	}
	if store.closeCalls != 1 {
		t.Errorf("history closed %d times, want 1", store.closeCalls)
	}
}

func TestRunContextCancel(t *testing.T) {
	device := &fakeDevice{}
	console := &fakeConsole{keys: idleKeys(t)}
	a := newTestApp(t, testConfig(), threeTracks(), Deps{Opener: device})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx, console) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(device.opened()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	sinks := device.opened()
	if len(sinks) != 1 || sinks[0].stops() != 1 {
		t.Errorf("expected one sink stopped once, got %d sinks", len(sinks))
	}
	if got := console.restores(); got != 1 {
		t.Errorf("console restored %d times, want 1", got)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	tests := []struct {
		name    string
		device  *fakeDevice
		console func(t *testing.T) *fakeConsole
		wantIn  string
	}{
		{
			name:   "engine",
			device: &fakeDevice{openPanic: true},
			console: func(t *testing.T) *fakeConsole {
				return &fakeConsole{keys: idleKeys(t)}
			},
			wantIn: "engine",
		},
		{
			name:   "renderer",
			device: &fakeDevice{},
			console: func(t *testing.T) *fakeConsole {
				return &fakeConsole{keys: idleKeys(t), widthPanic: true}
			},
			wantIn: "render",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console := tt.console(t)
			store := &fakeHistory{}
			a := newTestApp(t, testConfig(), threeTracks(), Deps{Opener: tt.device, History: store})

			err := runWithTimeout(t, a, console)
			if !errors.Is(err, ErrSessionPanic) {
				t.Fatalf("Run() error = %v, want ErrSessionPanic", err)
			}
			if !strings.Contains(err.Error(), tt.wantIn) {
				t.Errorf("Run() error = %q, want it to name %q", err, tt.wantIn)
			}

			if got := console.restores(); got != 1 {
				t.Errorf("console restored %d times, want 1", got)
			}
			tt.device.mu.Lock()
			closed := tt.device.closeCalls
			tt.device.mu.Unlock()
			if closed != 1 {
				t.Errorf("device closed %d times, want 1", closed)
			}
			for i, s := range tt.device.opened() {
				if s.stops() != 1 {
					t.Errorf("sink %d stopped %d times, want 1", i, s.stops())
				}
			}

			store.mu.Lock()
			defer store.mu.Unlock()
			if store.closeCalls != 1 {
				t.Errorf("history closed %d times, want 1", store.closeCalls)
			}
		})
	}
}

func TestNewUsesEventBufferSize(t *testing.T) {
	a := newTestApp(t, testConfig(), threeTracks(), Deps{Opener: &fakeDevice{}, History: &fakeHistory{}})

	if got := cap(a.events); got != player.EventBufferSize {
		t.Errorf("event channel capacity = %d, want %d", got, player.EventBufferSize)
	}
}
