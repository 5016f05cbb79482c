package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: specific channel to join (0 means use user's channel)
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
	Switched       bool // true if an existing connection was moved
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
}

// BotVoiceStateChangeInput contains the input for handling bot voice state changes.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil means disconnected
}

// ListenersChangedInput contains the input for handling listeners joining or leaving.
type ListenersChangedInput struct {
	GuildID snowflake.ID
}

// VoiceChannelService handles voice channel operations.
type VoiceChannelService struct {
	sessions   *session.Registry
	voiceState ports.VoiceStateProvider
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	sessions *session.Registry,
	voiceState ports.VoiceStateProvider,
) *VoiceChannelService {
	return &VoiceChannelService{
		sessions:   sessions,
		voiceState: voiceState,
	}
}

// Join connects the bot to a voice channel, or moves it there if it is
// already connected elsewhere in the guild.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
		if userChannel == nil {
			return nil, ErrUserNotInVoice
		}
		voiceChannelID = *userChannel
	}

	rc := requestContext(input.UserID, input.NotificationChannelID)

	s := v.sessions.Get(input.GuildID)
	err := s.Connect(ctx, voiceChannelID, rc)
	if errors.Is(err, domain.ErrSessionReleased) {
		s = v.sessions.Get(input.GuildID)
		err = s.Connect(ctx, voiceChannelID, rc)
	}

	switch {
	case err == nil:
		return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
	case errors.Is(err, domain.ErrAlreadyConnected):
		current := s.Snapshot().AudioChannelID
		if current != nil && *current == voiceChannelID {
			return &JoinOutput{VoiceChannelID: voiceChannelID}, nil
		}
		if err := s.Switch(ctx, voiceChannelID, rc); err != nil {
			return nil, err
		}
		return &JoinOutput{VoiceChannelID: voiceChannelID, Switched: true}, nil
	default:
		return nil, err
	}
}

// Leave disconnects the bot from the voice channel.
func (v *VoiceChannelService) Leave(ctx context.Context, input LeaveInput) error {
	s, ok := v.sessions.Lookup(input.GuildID)
	if !ok || !s.Snapshot().IsConnected() {
		return domain.ErrNotConnected
	}

	return s.Leave(ctx, requestContext(input.UserID, input.NotificationChannelID))
}

// HandleBotVoiceStateChange handles external voice state changes (bot moved or disconnected).
// This should be called when the bot's voice state changes due to external factors
// (e.g., being moved by a user or disconnected by Discord).
func (v *VoiceChannelService) HandleBotVoiceStateChange(ctx context.Context, input BotVoiceStateChangeInput) {
	s, ok := v.sessions.Lookup(input.GuildID)
	if !ok {
		return
	}

	snapshot := s.Snapshot()
	if !snapshot.IsConnected() {
		return
	}

	if input.NewChannelID == nil {
		slog.Info("bot was disconnected from voice", "guild", input.GuildID)
		if err := s.Leave(ctx, nil); err != nil {
			slog.Warn("failed to tear down session after disconnect", "guild", input.GuildID, "error", err)
		}
		return
	}

	if *input.NewChannelID != *snapshot.AudioChannelID {
		slog.Info(
			"bot was moved to another voice channel",
			"guild", input.GuildID,
			"channel", *input.NewChannelID,
		)
		if err := s.Switch(ctx, *input.NewChannelID, nil); err != nil {
			slog.Warn("failed to follow voice channel move", "guild", input.GuildID, "error", err)
		}
	}
}

// HandleListenersChanged pauses playback when nobody is left listening and
// resumes it when listeners return after such an automatic pause.
func (v *VoiceChannelService) HandleListenersChanged(ctx context.Context, input ListenersChangedInput) {
	s, ok := v.sessions.Lookup(input.GuildID)
	if !ok {
		return
	}

	snapshot := s.Snapshot()
	if !snapshot.IsConnected() || snapshot.Current == nil {
		return
	}

	listeners, err := v.voiceState.Listeners(input.GuildID, *snapshot.AudioChannelID)
	if err != nil {
		slog.Warn("failed to get voice channel listeners", "guild", input.GuildID, "error", err)
		return
	}

	switch {
	case len(listeners) == 0 && snapshot.State == domain.StatePlaying:
		slog.Debug("no listeners left, pausing", "guild", input.GuildID)
		if err := s.Pause(ctx, true, nil); err != nil {
			slog.Warn("failed to pause playback", "guild", input.GuildID, "error", err)
		}
	case len(listeners) > 0 && s.SystemPaused():
		slog.Debug("listeners returned, resuming", "guild", input.GuildID)
		if err := s.Resume(ctx, nil); err != nil {
			slog.Warn("failed to resume playback", "guild", input.GuildID, "error", err)
		}
	}
}
