//go:build (linux && cgo) || windows || darwin

package audio

import (
	"errors"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog"
)

func TestDeviceInitFailureIsUnavailable(t *testing.T) {
	d := NewDevice(zerolog.Nop())

	calls := 0
	d.initSpeaker = func(beep.SampleRate, int) error {
		calls++
		return errors.New("no such device")
	}

	for i := 0; i < 2; i++ {
		err := d.init()
		if !errors.Is(err, ErrAudioUnavailable) {
			t.Fatalf("init() error = %v, want ErrAudioUnavailable", err)
		}
		if errors.Is(err, ErrUnreadable) {
			t.Errorf("init() error = %v should not look like a bad track", err)
		}
	}

	if d.initialized {
		t.Error("device marked initialized after a failed init")
	}
	if calls != 2 {
		t.Errorf("speaker init called %d times, want 2", calls)
	}
}

func TestDeviceInitOnce(t *testing.T) {
	d := NewDevice(zerolog.Nop())

	calls := 0
	d.initSpeaker = func(rate beep.SampleRate, bufferSize int) error {
		calls++
		if rate != 44100 || bufferSize != 4410 {
			t.Errorf("speaker init(%d, %d), want (44100, 4410)", rate, bufferSize)
		}
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := d.init(); err != nil {
			t.Fatalf("init() error = %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("speaker init called %d times, want 1", calls)
	}
}
