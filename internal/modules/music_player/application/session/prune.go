package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// PrunePolicy decides which queued tracks Prune drops.
type PrunePolicy interface {
	ShouldPrune(track domain.Track, listeners []snowflake.ID) bool
}

// PrunePolicyFunc adapts a function to PrunePolicy.
type PrunePolicyFunc func(track domain.Track, listeners []snowflake.ID) bool

// ShouldPrune calls f.
func (f PrunePolicyFunc) ShouldPrune(track domain.Track, listeners []snowflake.ID) bool {
	return f(track, listeners)
}

var (
	// NoPrune keeps every track.
	NoPrune PrunePolicy = PrunePolicyFunc(func(domain.Track, []snowflake.ID) bool {
		return false
	})

	// AbsentRequesters drops tracks whose requester is no longer listening.
	AbsentRequesters PrunePolicy = PrunePolicyFunc(func(track domain.Track, listeners []snowflake.ID) bool {
		return !slices.Contains(listeners, track.RequesterID)
	})
)

// ParsePrunePolicy returns the policy configured by name.
func ParsePrunePolicy(name string) (PrunePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return NoPrune, nil
	case "absent-requesters":
		return AbsentRequesters, nil
	default:
		return nil, fmt.Errorf("unknown prune policy %q", name)
	}
}
