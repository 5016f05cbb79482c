package session

import (
	"math/rand/v2"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultCommandTimeout bounds every round-trip to the audio node.
const DefaultCommandTimeout = 5 * time.Second

type options struct {
	rng            domain.Rand
	now            func() time.Time
	commandTimeout time.Duration
	prunePolicy    PrunePolicy
}

func defaultOptions() options {
	return options{
		rng:            rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:            time.Now,
		commandTimeout: DefaultCommandTimeout,
		prunePolicy:    NoPrune,
	}
}

// Option configures a Session.
type Option func(*options)

// WithRand sets the randomness used by Shuffle.
func WithRand(rng domain.Rand) Option {
	return func(o *options) {
		if rng != nil {
			o.rng = rng
		}
	}
}

// WithClock sets the clock used for position derivation and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithCommandTimeout sets the timeout applied to every node call.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.commandTimeout = timeout
		}
	}
}

// WithPrunePolicy sets the policy used by Prune.
func WithPrunePolicy(policy PrunePolicy) Option {
	return func(o *options) {
		if policy != nil {
			o.prunePolicy = policy
		}
	}
}
