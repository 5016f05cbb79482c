package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
)

// Ensure DiscordMemberInfoProvider implements ports.MemberInfoProvider.
var (
	_ ports.MemberInfoProvider = (*DiscordMemberInfoProvider)(nil)
)

// DiscordMemberInfoProvider implements ports.MemberInfoProvider using a Discord session.
// Cached members are served from the state; others are fetched over REST.
type DiscordMemberInfoProvider struct {
	session *discordgo.Session
}

// NewDiscordMemberInfoProvider creates a new DiscordMemberInfoProvider.
func NewDiscordMemberInfoProvider(session *discordgo.Session) *DiscordMemberInfoProvider {
	return &DiscordMemberInfoProvider{session: session}
}

// MemberInfo fetches display info for a member of a guild.
func (p *DiscordMemberInfoProvider) MemberInfo(
	guildID, userID snowflake.ID,
) (*ports.MemberInfo, error) {
	member, err := p.session.State.Member(guildID.String(), userID.String())
	if err != nil {
		member, err = p.session.GuildMember(guildID.String(), userID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild member: %w", err)
		}
	}

	displayName := getDisplayName(member)
	avatarURL := member.AvatarURL("")

	return &ports.MemberInfo{
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}, nil
}

// getDisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func getDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
