package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Snapshot is a read-only projection of a session at one point in time.
type Snapshot struct {
	GuildID        snowflake.ID
	State          PlaybackState
	Current        *Track
	Queue          []Track
	Volume         int
	Replay         bool
	Position       time.Duration
	AudioChannelID *snowflake.ID
}

// IsConnected returns true if the session was attached to a voice channel.
func (s Snapshot) IsConnected() bool {
	return s.AudioChannelID != nil
}

// CanPlay returns true if Play would have something to start.
func (s Snapshot) CanPlay() bool {
	return s.IsConnected() && len(s.Queue) > 0 && s.State != StatePlaying
}

// Remaining returns the time left in the current track and the queue.
// Streams contribute nothing.
func (s Snapshot) Remaining() time.Duration {
	var total time.Duration
	if s.Current != nil && !s.Current.IsStream {
		total += max(s.Current.Duration-s.Position, 0)
	}
	for _, track := range s.Queue {
		if !track.IsStream {
			total += track.Duration
		}
	}
	return total
}
