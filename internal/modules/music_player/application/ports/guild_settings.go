package ports

import "github.com/disgoorg/snowflake/v2"

// GuildSettings provides per-guild configuration.
type GuildSettings interface {
	// DefaultVolume returns the volume a session starts with and is reset to.
	DefaultVolume(guildID snowflake.ID) int
}
