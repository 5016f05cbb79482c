package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Authorizer resolves the capabilities of a guild member.
type Authorizer interface {
	Actor(ctx context.Context, guildID, userID snowflake.ID) (domain.Actor, error)
}
