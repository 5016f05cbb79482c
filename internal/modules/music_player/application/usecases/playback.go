package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// PlayInput contains the input for the Play use case.
type PlayInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	Query                 string // Optional: tracks to add before starting playback
}

// PlayOutput contains the result of the Play use case.
type PlayOutput struct {
	Added        []domain.Track
	PlaylistName string
	Started      bool // true if playback was started or resumed by this request
}

// PlaybackInput identifies the guild and requester of a playback command.
type PlaybackInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
}

// SeekInput contains the input for the Seek use case.
type SeekInput struct {
	PlaybackInput
	Position time.Duration
}

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	PlaybackInput
	Volume int
}

// SetReplayInput contains the input for the SetReplay use case.
type SetReplayInput struct {
	PlaybackInput
	Replay bool
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTrack *domain.Track // nil if nothing was playing
}

// PlaybackService handles playback operations.
type PlaybackService struct {
	sessions *session.Registry
	resolver *TrackResolverService
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	sessions *session.Registry,
	resolver *TrackResolverService,
) *PlaybackService {
	return &PlaybackService{
		sessions: sessions,
		resolver: resolver,
	}
}

// Play adds the tracks found for the query, if any, and starts playback when
// idle. Without a query it resumes paused playback. Search results contribute
// only their best match.
func (p *PlaybackService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	output := &PlayOutput{}

	var tracks []domain.Track
	if input.Query != "" {
		result, err := p.resolver.Fetch(ctx, input.Query)
		if err != nil {
			return nil, err
		}
		tracks = result.Tracks
		if result.IsSearch() {
			tracks = tracks[:1]
		}
		output.PlaylistName = result.PlaylistName
	}

	rc := requestContext(input.UserID, input.NotificationChannelID)

	s, ok := p.sessions.Lookup(input.GuildID)
	if !ok || !s.Snapshot().IsConnected() {
		return nil, domain.ErrNotConnected
	}

	if len(tracks) > 0 {
		added, err := s.Add(input.UserID, tracks, rc)
		if err != nil {
			return nil, err
		}
		output.Added = added
	}

	switch s.Snapshot().State {
	case domain.StatePlaying:
		return output, nil
	case domain.StatePaused:
		if len(output.Added) > 0 {
			return output, nil
		}
		if err := s.Resume(ctx, rc); err != nil {
			return nil, err
		}
		output.Started = true
		return output, nil
	}

	err := s.Play(ctx, rc)
	switch {
	case err == nil:
		output.Started = true
	case errors.Is(err, domain.ErrAlreadyPlaying) && len(output.Added) > 0:
		// Raced with an auto-advance; the tracks are queued.
	default:
		return nil, err
	}

	return output, nil
}

// Pause pauses the current playback.
func (p *PlaybackService) Pause(ctx context.Context, input PlaybackInput) error {
	s, err := p.connected(input.GuildID)
	if err != nil {
		return err
	}
	return s.Pause(ctx, false, input.requestContext())
}

// Resume resumes the paused playback.
func (p *PlaybackService) Resume(ctx context.Context, input PlaybackInput) error {
	s, err := p.connected(input.GuildID)
	if err != nil {
		return err
	}
	return s.Resume(ctx, input.requestContext())
}

// Skip stops the current track so that the next one starts.
func (p *PlaybackService) Skip(ctx context.Context, input PlaybackInput) (*SkipOutput, error) {
	s, err := p.connected(input.GuildID)
	if err != nil {
		return nil, err
	}

	current := s.Snapshot().Current
	if err := s.Skip(ctx, input.requestContext()); err != nil {
		return nil, err
	}
	return &SkipOutput{SkippedTrack: current}, nil
}

// Seek moves the playback position of the current track.
func (p *PlaybackService) Seek(ctx context.Context, input SeekInput) error {
	s, err := p.connected(input.GuildID)
	if err != nil {
		return err
	}
	return s.Seek(ctx, input.Position, input.requestContext())
}

// SetVolume changes the playback volume. It works without a voice connection.
func (p *PlaybackService) SetVolume(ctx context.Context, input SetVolumeInput) error {
	return p.sessions.SetVolume(ctx, input.GuildID, input.Volume, input.requestContext())
}

// SetReplay turns replay of finished tracks on or off.
func (p *PlaybackService) SetReplay(_ context.Context, input SetReplayInput) error {
	s, err := p.connected(input.GuildID)
	if err != nil {
		return err
	}
	return s.SetReplay(input.Replay, input.requestContext())
}

// NowPlaying returns a snapshot of the guild's session.
func (p *PlaybackService) NowPlaying(guildID snowflake.ID) (*Snapshot, error) {
	s, err := p.connected(guildID)
	if err != nil {
		return nil, err
	}
	snapshot := s.Snapshot()
	return &snapshot, nil
}

func (p *PlaybackService) connected(guildID snowflake.ID) (*session.Session, error) {
	s, ok := p.sessions.Lookup(guildID)
	if !ok || !s.Snapshot().IsConnected() {
		return nil, domain.ErrNotConnected
	}
	return s, nil
}

func (in PlaybackInput) requestContext() *domain.RequestContext {
	return requestContext(in.UserID, in.NotificationChannelID)
}
