package domain

// PlaybackState is the playback state of a session.
type PlaybackState int

const (
	// StateIdle means no track is loaded on the node.
	StateIdle PlaybackState = iota
	// StateConnecting means a voice connection is being established.
	StateConnecting
	// StatePlaying means the current track is audible.
	StatePlaying
	// StatePaused means the current track is loaded but paused.
	StatePaused
)

// String returns the string representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// HasTrack returns true if the state implies a current track.
func (s PlaybackState) HasTrack() bool {
	return s == StatePlaying || s == StatePaused
}
