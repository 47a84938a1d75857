package history

import "time"

const (
	// MinimumTrackDuration is the shortest track that can count as listened
	MinimumTrackDuration = 30 * time.Second

	// ListenedPercentage is the share of a track that must be played
	ListenedPercentage = 0.5

	// MaxListenedThreshold caps the required play time for long tracks
	MaxListenedThreshold = 4 * time.Minute
)

// Listened reports whether played counts as a listen of a track of the
// given length: the track is at least 30 seconds long and was played for
// half its length or 4 minutes, whichever is shorter.
func Listened(trackDuration, played time.Duration) bool {
	threshold := Threshold(trackDuration)
	if threshold < 0 {
		return false
	}
	return played >= threshold
}

// Threshold returns the play time needed for a listen, or -1 when the
// track is too short (or of unknown length) to ever count
func Threshold(trackDuration time.Duration) time.Duration {
	if trackDuration < MinimumTrackDuration {
		return -1
	}

	threshold := time.Duration(float64(trackDuration) * ListenedPercentage)
	if threshold > MaxListenedThreshold {
		threshold = MaxListenedThreshold
	}

	return threshold
}
