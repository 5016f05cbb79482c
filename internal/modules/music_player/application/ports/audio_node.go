package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// AudioNode defines the interface for controlling a guild's player on the audio node.
// Every call blocks until the node acknowledged it or ctx is done.
type AudioNode interface {
	VoiceConnection

	// Play starts rendering the given track, replacing whatever was loaded.
	// The player is unpaused afterwards.
	Play(ctx context.Context, guildID snowflake.ID, track domain.Track) error

	// Pause pauses or unpauses the player.
	Pause(ctx context.Context, guildID snowflake.ID, paused bool) error

	// Resume unpauses the player.
	Resume(ctx context.Context, guildID snowflake.ID) error

	// Stop unloads the current track. The node reports it as ended with reason "stopped".
	Stop(ctx context.Context, guildID snowflake.ID) error

	// Seek moves the playback position of the current track.
	Seek(ctx context.Context, guildID snowflake.ID, position time.Duration) error

	// SetVolume sets the player volume in percent.
	SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error

	// Subscribe returns a channel of node events for the guild and a function
	// that cancels the subscription and closes the channel.
	Subscribe(guildID snowflake.ID) (<-chan domain.NodeEvent, func())
}
