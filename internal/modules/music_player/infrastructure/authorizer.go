package infrastructure

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Permission levels assigned to guild members.
const (
	LevelMember        = 0
	LevelModerator     = domain.ModeratorLevel
	LevelAdministrator = 6
	LevelOwner         = 7
)

// Ensure DiscordAuthorizer implements ports.Authorizer.
var _ ports.Authorizer = (*DiscordAuthorizer)(nil)

// DiscordAuthorizer derives a member's capabilities from guild ownership,
// role permissions and the configured DJ roles.
type DiscordAuthorizer struct {
	session *discordgo.Session
	djRoles []string
}

// NewDiscordAuthorizer creates a new DiscordAuthorizer.
func NewDiscordAuthorizer(session *discordgo.Session, djRoleIDs []snowflake.ID) *DiscordAuthorizer {
	djRoles := make([]string, len(djRoleIDs))
	for i, id := range djRoleIDs {
		djRoles[i] = id.String()
	}
	return &DiscordAuthorizer{
		session: session,
		djRoles: djRoles,
	}
}

// Actor resolves the capabilities of a guild member.
func (a *DiscordAuthorizer) Actor(ctx context.Context, guildID, userID snowflake.ID) (domain.Actor, error) {
	actor := domain.Actor{ID: userID}

	guild, err := a.session.State.Guild(guildID.String())
	if err != nil {
		return actor, fmt.Errorf("failed to get guild: %w", err)
	}

	member, err := a.member(ctx, guildID, userID)
	if err != nil {
		return actor, err
	}

	actor.IsDJ = slices.ContainsFunc(member.Roles, func(roleID string) bool {
		return slices.Contains(a.djRoles, roleID)
	})
	actor.PermissionLevel = permissionLevel(guild, member, a.rolePermissions(guild, member))

	return actor, nil
}

func (a *DiscordAuthorizer) member(ctx context.Context, guildID, userID snowflake.ID) (*discordgo.Member, error) {
	if member, err := a.session.State.Member(guildID.String(), userID.String()); err == nil {
		return member, nil
	}

	member, err := a.session.GuildMember(guildID.String(), userID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	return member, nil
}

// rolePermissions returns the union of the permissions of @everyone and the member's roles.
func (a *DiscordAuthorizer) rolePermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	var permissions int64

	// The @everyone role shares the guild's ID.
	roleIDs := append([]string{guild.ID}, member.Roles...)
	for _, roleID := range roleIDs {
		role, err := a.session.State.Role(guild.ID, roleID)
		if err != nil {
			continue
		}
		permissions |= role.Permissions
	}

	return permissions
}

func permissionLevel(guild *discordgo.Guild, member *discordgo.Member, permissions int64) int {
	switch {
	case member.User != nil && member.User.ID == guild.OwnerID:
		return LevelOwner
	case permissions&discordgo.PermissionAdministrator != 0:
		return LevelAdministrator
	case permissions&(discordgo.PermissionManageServer|discordgo.PermissionBanMembers) != 0:
		return LevelModerator
	default:
		return LevelMember
	}
}
