package infrastructure

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// Ensure StaticGuildSettings implements ports.GuildSettings.
var _ ports.GuildSettings = (*StaticGuildSettings)(nil)

// StaticGuildSettings serves guild settings fixed at startup, with
// per-guild overrides of the default volume.
type StaticGuildSettings struct {
	defaultVolume int
	volumes       map[snowflake.ID]int
}

// NewStaticGuildSettings creates a new StaticGuildSettings.
func NewStaticGuildSettings(defaultVolume int, volumes map[snowflake.ID]int) *StaticGuildSettings {
	return &StaticGuildSettings{
		defaultVolume: defaultVolume,
		volumes:       volumes,
	}
}

// DefaultVolume returns the guild's override if set, else the global default.
func (s *StaticGuildSettings) DefaultVolume(guildID snowflake.ID) int {
	if volume, ok := s.volumes[guildID]; ok {
		return volume
	}
	return s.defaultVolume
}
