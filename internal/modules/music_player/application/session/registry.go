package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
	"golang.org/x/sync/errgroup"
)

// Registry holds at most one Session per guild.
type Registry struct {
	node      ports.AudioNode
	publisher ports.EventPublisher
	voice     ports.VoiceStateProvider
	settings  ports.GuildSettings
	opts      []Option

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
	// volumes holds volumes set while a guild had no session.
	volumes map[snowflake.ID]int
}

// NewRegistry creates a new Registry. Sessions it creates share the given
// collaborators and options.
func NewRegistry(
	node ports.AudioNode,
	publisher ports.EventPublisher,
	voice ports.VoiceStateProvider,
	settings ports.GuildSettings,
	opts ...Option,
) *Registry {
	return &Registry{
		node:      node,
		publisher: publisher,
		voice:     voice,
		settings:  settings,
		opts:      opts,
		sessions:  make(map[snowflake.ID]*Session),
		volumes:   make(map[snowflake.ID]int),
	}
}

// Get returns the session of the guild, creating it on first access.
func (r *Registry) Get(guildID snowflake.ID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}

	s := New(guildID, r.node, r.publisher, r.voice, r.settings, r.opts...)
	s.release = r.release
	if volume, ok := r.volumes[guildID]; ok {
		s.volume = volume
		delete(r.volumes, guildID)
	}
	r.sessions[guildID] = s

	slog.Debug("created session", "guild", guildID)

	return s
}

// Lookup returns the session of the guild without creating one.
func (r *Registry) Lookup(guildID snowflake.ID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[guildID]
	return s, ok
}

// SetVolume sets the volume of the guild's session. Without a session the
// volume is kept for the guild's next session and none is created.
func (r *Registry) SetVolume(
	ctx context.Context,
	guildID snowflake.ID,
	volume int,
	rc *domain.RequestContext,
) error {
	for {
		r.mu.Lock()
		s, ok := r.sessions[guildID]
		if !ok {
			err := r.setPendingVolumeLocked(ctx, guildID, volume, rc)
			r.mu.Unlock()
			return err
		}
		r.mu.Unlock()

		err := s.SetVolume(ctx, volume, rc)
		if !errors.Is(err, domain.ErrSessionReleased) {
			return err
		}
	}
}

// setPendingVolumeLocked applies the volume to a detached session that is
// never registered, so validation and events match a live session.
func (r *Registry) setPendingVolumeLocked(
	ctx context.Context,
	guildID snowflake.ID,
	volume int,
	rc *domain.RequestContext,
) error {
	s := New(guildID, r.node, r.publisher, r.voice, r.settings, r.opts...)
	if pending, ok := r.volumes[guildID]; ok {
		s.volume = pending
	}

	if err := s.SetVolume(ctx, volume, rc); err != nil {
		return err
	}

	r.volumes[guildID] = volume
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

func (r *Registry) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessions[s.guildID] == s {
		delete(r.sessions, s.guildID)
		slog.Debug("released session", "guild", s.guildID)
	}
}

// Close leaves every connected session concurrently and returns the first error.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	var g errgroup.Group
	for _, s := range sessions {
		if !s.Snapshot().IsConnected() {
			continue
		}
		g.Go(func() error {
			return s.Leave(ctx, nil)
		})
	}

	return g.Wait()
}
