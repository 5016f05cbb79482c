package usecases

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// Snapshot is an alias for domain.Snapshot.
type Snapshot = domain.Snapshot

// PlaybackState is an alias for domain.PlaybackState.
type PlaybackState = domain.PlaybackState

// Playback states re-exported for the presentation layer.
const (
	StateIdle    = domain.StateIdle
	StatePlaying = domain.StatePlaying
	StatePaused  = domain.StatePaused
)

// FormatDuration formats a duration as mm:ss or hh:mm:ss.
func FormatDuration(d time.Duration) string {
	return domain.FormatDuration(d)
}

func requestContext(userID, notifyChannelID snowflake.ID) *domain.RequestContext {
	return domain.NewRequestContext(userID, notifyChannelID)
}
