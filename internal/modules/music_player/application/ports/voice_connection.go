package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection defines the interface for voice channel connection operations.
type VoiceConnection interface {
	// Join connects the bot, self-deafened, to the specified voice channel.
	Join(ctx context.Context, guildID, channelID snowflake.ID) error

	// Leave disconnects the bot from the voice channel and destroys the player.
	Leave(ctx context.Context, guildID snowflake.ID) error

	// SwitchChannel moves an existing voice connection to another channel.
	SwitchChannel(ctx context.Context, guildID, channelID snowflake.ID) error
}
