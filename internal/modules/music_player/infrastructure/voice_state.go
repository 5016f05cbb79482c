package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// VoiceStateProvider provides Discord voice state information from the state cache.
type VoiceStateProvider struct {
	state *discordgo.State
}

// NewVoiceStateProvider creates a new VoiceStateProvider.
func NewVoiceStateProvider(state *discordgo.State) *VoiceStateProvider {
	return &VoiceStateProvider{
		state: state,
	}
}

// GetUserVoiceChannel returns the voice channel ID that the user is currently in.
// Returns nil if the user is not in a voice channel.
func (v *VoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (*snowflake.ID, error) {
	guild, err := v.state.Guild(guildID.String())
	if err != nil {
		return nil, err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID.String() && vs.ChannelID != "" {
			channelID, err := snowflake.Parse(vs.ChannelID)
			if err != nil {
				return nil, err
			}
			return &channelID, nil
		}
	}

	return nil, nil
}

// Listeners returns the members in the voice channel that are neither bots nor deafened.
func (v *VoiceStateProvider) Listeners(guildID, channelID snowflake.ID) ([]snowflake.ID, error) {
	guild, err := v.state.Guild(guildID.String())
	if err != nil {
		return nil, err
	}

	var listeners []snowflake.ID
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID.String() || vs.Deaf || vs.SelfDeaf {
			continue
		}
		if v.isBot(guildID, vs) {
			continue
		}

		userID, err := snowflake.Parse(vs.UserID)
		if err != nil {
			return nil, err
		}
		listeners = append(listeners, userID)
	}

	return listeners, nil
}

func (v *VoiceStateProvider) isBot(guildID snowflake.ID, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	member, err := v.state.Member(guildID.String(), vs.UserID)
	if err != nil || member.User == nil {
		// Unknown members are counted as listeners.
		return false
	}
	return member.User.Bot
}

// Ensure VoiceStateProvider implements ports.VoiceStateProvider.
var _ ports.VoiceStateProvider = (*VoiceStateProvider)(nil)
