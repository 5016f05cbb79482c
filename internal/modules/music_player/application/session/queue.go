package session

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// Add appends tracks to the queue in order, attributed to the requester.
// Returns the tracks as they were queued.
func (s *Session) Add(
	requesterID snowflake.ID,
	tracks []domain.Track,
	rc *domain.RequestContext,
) ([]domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, domain.ErrSessionReleased
	}

	at := s.opts.now()
	added := make([]domain.Track, len(tracks))
	for i, track := range tracks {
		added[i] = track.RequestedBy(requesterID, at)
	}
	s.queue.Append(added...)

	s.publish(domain.TracksAddedEvent{
		EventHeader: s.header(rc),
		Tracks:      added,
	})

	return added, nil
}

// Remove removes the track at the 1-based position. Actors may always remove
// their own tracks; anything else requires ManageableFor.
func (s *Session) Remove(
	actor domain.Actor,
	position int,
	rc *domain.RequestContext,
) (domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.Track{}, domain.ErrSessionReleased
	}

	index, err := s.queue.IndexOf(position)
	if err != nil {
		return domain.Track{}, err
	}

	target, _ := s.queue.At(index)
	if target.RequesterID != actor.ID && !s.manageableLocked(actor) {
		return domain.Track{}, domain.ErrPermissionDenied
	}

	removed, _ := s.queue.RemoveAt(index)

	s.publish(domain.TrackRemovedEvent{
		EventHeader: s.header(rc),
		Track:       removed,
		Position:    position,
	})

	return removed, nil
}

// Promote moves the track at the 1-based position to the front of the queue.
func (s *Session) Promote(position int, rc *domain.RequestContext) (domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.Track{}, domain.ErrSessionReleased
	}

	index, err := s.queue.IndexOf(position)
	if err != nil {
		return domain.Track{}, err
	}

	promoted, _ := s.queue.Promote(index)

	s.publish(domain.QueuePromotedEvent{
		EventHeader: s.header(rc),
		Track:       promoted,
		Position:    position,
	})

	return promoted, nil
}

// Shuffle randomly permutes the queue.
func (s *Session) Shuffle(rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}

	s.queue.Shuffle(s.opts.rng)

	s.publish(domain.QueueShuffledEvent{
		EventHeader: s.header(rc),
	})

	return nil
}

// Prune drops the queued tracks selected by the prune policy and returns them.
func (s *Session) Prune(rc *domain.RequestContext) ([]domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, domain.ErrSessionReleased
	}

	listeners := s.listenersLocked()
	removed := s.queue.Retain(func(track domain.Track) bool {
		return !s.opts.prunePolicy.ShouldPrune(track, listeners)
	})

	s.publish(domain.PrunedEvent{
		EventHeader: s.header(rc),
		Removed:     removed,
	})

	return removed, nil
}

// Clear drops every queued track. The current track keeps playing.
func (s *Session) Clear(rc *domain.RequestContext) ([]domain.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, domain.ErrSessionReleased
	}

	removed := s.queue.Clear()

	s.publish(domain.PrunedEvent{
		EventHeader: s.header(rc),
		Removed:     removed,
	})

	return removed, nil
}
