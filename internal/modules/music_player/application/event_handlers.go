package application

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorQueued = 0x2ECC71
	colorError  = 0xE74C3C
	colorInfo   = 0x95A5A6
)

type message struct {
	channelID snowflake.ID
	messageID snowflake.ID
}

// NotificationEventHandler turns session events into Discord notifications.
// Events raised by a request are posted to the request's channel; events
// raised by the node go to the last channel a request came from.
type NotificationEventHandler struct {
	subscriber ports.EventSubscriber
	notifier   ports.NotificationSender
	members    ports.MemberInfoProvider

	mu         sync.Mutex
	channels   map[snowflake.ID]snowflake.ID // guildID -> notification channel
	nowPlaying map[snowflake.ID]message      // guildID -> now playing message
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
	members ports.MemberInfoProvider,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber: subscriber,
		notifier:   notifier,
		members:    members,
		channels:   make(map[snowflake.ID]snowflake.ID),
		nowPlaying: make(map[snowflake.ID]message),
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	if err := h.subscriber.SubscribeAll(func(_ context.Context, e domain.Event) {
		h.rememberChannel(e.Header())
	}); err != nil {
		return err
	}

	handlers := map[reflect.Type]func(context.Context, domain.Event){
		reflect.TypeFor[domain.TrackStartedEvent](): func(_ context.Context, e domain.Event) {
			h.handleTrackStarted(e.(domain.TrackStartedEvent))
		},
		reflect.TypeFor[domain.TrackEndedEvent](): func(_ context.Context, e domain.Event) {
			h.handleTrackEnded(e.(domain.TrackEndedEvent))
		},
		reflect.TypeFor[domain.TracksAddedEvent](): func(_ context.Context, e domain.Event) {
			h.handleTracksAdded(e.(domain.TracksAddedEvent))
		},
		reflect.TypeFor[domain.TrackExceptionEvent](): func(_ context.Context, e domain.Event) {
			h.handleTrackException(e.(domain.TrackExceptionEvent))
		},
		reflect.TypeFor[domain.PausedEvent](): func(_ context.Context, e domain.Event) {
			h.handlePaused(e.(domain.PausedEvent))
		},
		reflect.TypeFor[domain.LeftEvent](): func(_ context.Context, e domain.Event) {
			h.handleLeft(e.(domain.LeftEvent))
		},
	}
	for eventType, handler := range handlers {
		if err := h.subscriber.Subscribe(eventType, handler); err != nil {
			return err
		}
	}

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) rememberChannel(header domain.EventHeader) {
	if !header.Context.HasNotifyChannel() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels[header.GuildID] = header.Context.NotifyChannelID
}

// channelFor returns the channel to notify about the event, or 0 if none is known.
func (h *NotificationEventHandler) channelFor(header domain.EventHeader) snowflake.ID {
	if header.Context.HasNotifyChannel() {
		return header.Context.NotifyChannelID
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.channels[header.GuildID]
}

func (h *NotificationEventHandler) handleTrackStarted(event domain.TrackStartedEvent) {
	// The node may report a track that is no longer current.
	if event.Track == nil {
		slog.Debug(
			"skipping now playing notification, track no longer current",
			"guild", event.GuildID,
		)
		return
	}

	h.deleteNowPlaying(event.GuildID)

	channelID := h.channelFor(event.EventHeader)
	if channelID == 0 {
		return
	}

	slog.Debug(
		"sending now playing notification",
		"guild", event.GuildID,
		"track", event.Track.Title,
	)

	notification := h.nowPlayingNotification(event.GuildID, *event.Track)
	messageID, err := h.notifier.Send(channelID, notification)
	if err != nil {
		slog.Error(
			"failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
		return
	}

	h.mu.Lock()
	h.nowPlaying[event.GuildID] = message{channelID: channelID, messageID: messageID}
	h.mu.Unlock()
}

func (h *NotificationEventHandler) handleTrackEnded(event domain.TrackEndedEvent) {
	if event.Next != nil {
		// The next TrackStartedEvent replaces the message.
		return
	}
	h.deleteNowPlaying(event.GuildID)
}

func (h *NotificationEventHandler) handleTracksAdded(event domain.TracksAddedEvent) {
	if !event.Context.HasNotifyChannel() || len(event.Tracks) == 0 {
		return
	}

	notification := &ports.Notification{
		Heading: "Added to Queue",
		Color:   colorQueued,
	}
	if len(event.Tracks) == 1 {
		track := event.Tracks[0]
		notification.Title = track.Title
		notification.URL = track.URI
		notification.Fields = []ports.NotificationField{
			{Name: "Artist", Value: track.Author},
			{Name: "Duration", Value: track.FormattedDuration()},
			{Name: "Position", Value: fmt.Sprintf("%d", len(event.Session.Queue))},
		}
	} else {
		notification.Description = fmt.Sprintf("Added **%d** tracks to the queue.", len(event.Tracks))
	}

	if _, err := h.notifier.Send(event.Context.NotifyChannelID, notification); err != nil {
		slog.Warn(
			"failed to send queue added notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleTrackException(event domain.TrackExceptionEvent) {
	channelID := h.channelFor(event.EventHeader)
	if channelID == 0 {
		return
	}

	description := event.Message
	if event.Track != nil {
		description = fmt.Sprintf("Failed to play **%s**: %s", event.Track.Title, event.Message)
	}

	if _, err := h.notifier.Send(channelID, &ports.Notification{
		Description: description,
		Color:       colorError,
	}); err != nil {
		slog.Warn(
			"failed to send track exception notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePaused(event domain.PausedEvent) {
	// Pauses requested by users are acknowledged by the command reply.
	if !event.SystemPaused {
		return
	}

	channelID := h.channelFor(event.EventHeader)
	if channelID == 0 {
		return
	}

	if _, err := h.notifier.Send(channelID, &ports.Notification{
		Description: "Paused because everyone left the voice channel. Playback resumes when someone joins.",
		Color:       colorInfo,
	}); err != nil {
		slog.Warn(
			"failed to send pause notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleLeft(event domain.LeftEvent) {
	h.deleteNowPlaying(event.GuildID)

	if len(event.Session.Queue) > 0 {
		return
	}

	h.mu.Lock()
	delete(h.channels, event.GuildID)
	h.mu.Unlock()
}

func (h *NotificationEventHandler) deleteNowPlaying(guildID snowflake.ID) {
	h.mu.Lock()
	msg, ok := h.nowPlaying[guildID]
	delete(h.nowPlaying, guildID)
	h.mu.Unlock()

	if !ok {
		return
	}

	slog.Debug(
		"deleting now playing message",
		"guild", guildID,
		"message_id", msg.messageID,
	)

	if err := h.notifier.Delete(msg.channelID, msg.messageID); err != nil {
		slog.Warn(
			"failed to delete now playing message",
			"guild", guildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) nowPlayingNotification(
	guildID snowflake.ID,
	track domain.Track,
) *ports.Notification {
	requesterName := "Unknown"
	var requesterAvatarURL string
	if h.members != nil && track.RequesterID != 0 {
		info, err := h.members.MemberInfo(guildID, track.RequesterID)
		if err != nil {
			slog.Warn(
				"failed to fetch requester info for now playing",
				"guild", guildID,
				"requester", track.RequesterID,
				"error", err,
			)
		} else {
			requesterName = info.DisplayName
			requesterAvatarURL = info.AvatarURL
		}
	}

	fields := []ports.NotificationField{
		{Name: "Artist", Value: track.Author},
	}
	// Only show duration for non-stream tracks
	if !track.IsStream {
		fields = append(fields, ports.NotificationField{
			Name:  "Duration",
			Value: track.FormattedDuration(),
		})
	}

	return &ports.Notification{
		Heading:    "Now Playing",
		Title:      track.Title,
		URL:        track.URI,
		Color:      track.Source().Color(),
		Fields:     fields,
		Footer:     fmt.Sprintf("Requested by %s", requesterName),
		FooterIcon: requesterAvatarURL,
		Timestamp:  track.EnqueuedAt,
		Track:      &track,
	}
}
