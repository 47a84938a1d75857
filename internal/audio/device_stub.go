//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Device is unavailable without cgo on this platform. Open always fails
// with ErrAudioUnavailable, which ends playback.
type Device struct {
	logger zerolog.Logger
}

// NewDevice creates a Device that cannot play anything
func NewDevice(logger zerolog.Logger) *Device {
	return &Device{logger: logger.With().Str("component", "audio").Logger()}
}

// Open decodes path to report format errors, then fails with ErrAudioUnavailable
func (d *Device) Open(path string, _ OpenOptions) (Sink, error) {
	streamer, _, err := decode(path)
	if err != nil {
		return nil, err
	}
	_ = streamer.Close()

	d.logger.Warn().Str("path", path).Msg("Built without audio output")
	return nil, fmt.Errorf("%w: built without cgo", ErrAudioUnavailable)
}

var _ Opener = (*Device)(nil)

// Close is a no-op
func (d *Device) Close() error {
	return nil
}
