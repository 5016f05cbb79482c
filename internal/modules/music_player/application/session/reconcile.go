package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// reconcile applies node events of one connection until the subscription is closed.
// Events arriving after that connection ended are dropped.
func (s *Session) reconcile(generation uint64, events <-chan domain.NodeEvent) {
	for event := range events {
		s.mu.Lock()
		if s.generation == generation {
			s.handleNodeEventLocked(context.Background(), event)
		}
		s.mu.Unlock()
	}

	slog.Debug("node event subscription closed", "guild", s.guildID)
}

// HandleNodeEvent applies a node event to the session.
func (s *Session) HandleNodeEvent(ctx context.Context, event domain.NodeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handleNodeEventLocked(ctx, event)
}

func (s *Session) handleNodeEventLocked(ctx context.Context, event domain.NodeEvent) {
	switch e := event.(type) {
	case domain.NodePlayerUpdate:
		s.handlePlayerUpdate(e)
	case domain.NodeTrackStart:
		s.handleTrackStart(e)
	case domain.NodeTrackEnd:
		s.handleTrackEnd(ctx, e)
	case domain.NodeTrackError:
		s.handleTrackError(e)
	default:
		slog.Warn("unknown node event", "guild", s.guildID, "event", event)
	}
}

func (s *Session) handlePlayerUpdate(e domain.NodePlayerUpdate) {
	if s.current == nil {
		return
	}

	s.position = e.Position
	s.lastUpdate = e.At

	s.publish(domain.PlayerUpdatedEvent{
		EventHeader: s.header(nil),
		Position:    e.Position,
	})
}

func (s *Session) handleTrackStart(e domain.NodeTrackStart) {
	event := domain.TrackStartedEvent{}
	if s.current != nil && s.current.Encoded == e.Encoded {
		current := *s.current
		event.Track = &current
	}
	event.EventHeader = s.header(nil)

	s.publish(event)
}

func (s *Session) handleTrackEnd(ctx context.Context, e domain.NodeTrackEnd) {
	if !e.Reason.ShouldAdvanceQueue() {
		return
	}
	if s.current == nil || s.current.Encoded != e.Encoded {
		slog.Debug("ignoring end of a track that is not current", "guild", s.guildID, "reason", e.Reason)
		return
	}

	finished := *s.current
	if s.replay {
		s.queue.Append(finished)
	}

	s.current = nil
	s.position = 0
	s.lastUpdate = time.Time{}
	s.systemPaused = false

	next, ok := s.queue.PopFront()
	if !ok {
		s.state = domain.StateIdle

		slog.Debug("queue finished", "guild", s.guildID)

		s.publish(domain.TrackEndedEvent{
			EventHeader: s.header(nil),
			Track:       finished,
			Reason:      e.Reason,
		})
		return
	}

	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Play(ctx, s.guildID, next)
	}); err != nil {
		s.queue.PushFront(next)
		s.state = domain.StateIdle

		slog.Error(
			"failed to start next track",
			"guild", s.guildID,
			"track", next.Title,
			"error", err,
		)

		s.publish(domain.TrackEndedEvent{
			EventHeader: s.header(nil),
			Track:       finished,
			Reason:      e.Reason,
		})
		s.publish(domain.TrackExceptionEvent{
			EventHeader: s.header(nil),
			Track:       &next,
			Message:     err.Error(),
			Severity:    "fault",
		})
		return
	}

	s.startLocked(next)

	s.publish(domain.TrackEndedEvent{
		EventHeader: s.header(nil),
		Track:       finished,
		Reason:      e.Reason,
		Next:        &next,
	})
}

func (s *Session) handleTrackError(e domain.NodeTrackError) {
	event := domain.TrackExceptionEvent{
		Message:  e.Message,
		Severity: e.Severity,
	}
	if s.current != nil {
		current := *s.current
		event.Track = &current
	}
	event.EventHeader = s.header(nil)

	slog.Warn(
		"track exception",
		"guild", s.guildID,
		"message", e.Message,
		"severity", e.Severity,
	)

	s.publish(event)
}
