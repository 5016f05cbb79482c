package domain

import "github.com/disgoorg/snowflake/v2"

// ModeratorLevel is the lowest permission level that may manage any queue.
const ModeratorLevel = 5

// Actor is a user issuing a request, as resolved by the authorizer.
type Actor struct {
	ID              snowflake.ID
	IsDJ            bool
	PermissionLevel int
}

// ManageableFor reports whether the actor may manage the session's queue as a whole.
// Rules are checked in order; the first that holds grants access:
//   - the actor is the only listener in the voice channel
//   - the actor has the DJ capability
//   - the current track (if any) and every queued track were requested by the actor
//   - the actor's permission level is at least ModeratorLevel
func ManageableFor(actor Actor, listeners []snowflake.ID, current *Track, queue []Track) bool {
	if len(listeners) == 1 && listeners[0] == actor.ID {
		return true
	}

	if actor.IsDJ {
		return true
	}

	if ownsAll(actor.ID, current, queue) {
		return true
	}

	return actor.PermissionLevel >= ModeratorLevel
}

func ownsAll(userID snowflake.ID, current *Track, queue []Track) bool {
	if current != nil && current.RequesterID != userID {
		return false
	}
	for _, track := range queue {
		if track.RequesterID != userID {
			return false
		}
	}
	return true
}
