package infrastructure

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// nodeEventBufferSize is the buffer size of each guild's node event channel.
const nodeEventBufferSize = 64

// deliveryTimeout bounds how long a track end or error waits for buffer space.
var deliveryTimeout = 5 * time.Second

// nodeSubscription is one guild's event channel.
// done is closed before events so waiting senders give up first.
type nodeSubscription struct {
	events chan domain.NodeEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func newNodeSubscription() *nodeSubscription {
	return &nodeSubscription{
		events: make(chan domain.NodeEvent, nodeEventBufferSize),
		done:   make(chan struct{}),
	}
}

func (s *nodeSubscription) close() {
	s.once.Do(func() {
		close(s.done)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		close(s.events)
	})
}

// send delivers the event. Player updates and track starts are dropped when
// the buffer is full; track ends and errors wait up to deliveryTimeout.
func (s *nodeSubscription) send(guildID snowflake.ID, event domain.NodeEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.events <- event:
		return
	default:
	}

	if !mustDeliver(event) {
		slog.Warn(
			"node event buffer full, dropping event",
			"guild", guildID,
			"type", fmt.Sprintf("%T", event),
		)
		return
	}

	timer := time.NewTimer(deliveryTimeout)
	defer timer.Stop()

	select {
	case s.events <- event:
	case <-s.done:
	case <-timer.C:
		slog.Error(
			"node event buffer full, dropping event",
			"guild", guildID,
			"type", fmt.Sprintf("%T", event),
		)
	}
}

// mustDeliver reports whether losing the event would leave the session stuck
// on a track the node no longer plays.
func mustDeliver(event domain.NodeEvent) bool {
	switch event.(type) {
	case domain.NodeTrackEnd, domain.NodeTrackError:
		return true
	default:
		return false
	}
}

// nodeEventHub fans node events out to one subscriber per guild.
type nodeEventHub struct {
	mu          sync.RWMutex
	subscribers map[snowflake.ID]*nodeSubscription
}

func newNodeEventHub() *nodeEventHub {
	return &nodeEventHub{
		subscribers: make(map[snowflake.ID]*nodeSubscription),
	}
}

// subscribe replaces any previous subscription of the guild.
func (h *nodeEventHub) subscribe(guildID snowflake.ID) (<-chan domain.NodeEvent, func()) {
	sub := newNodeSubscription()

	h.mu.Lock()
	previous, ok := h.subscribers[guildID]
	h.subscribers[guildID] = sub
	h.mu.Unlock()

	if ok {
		previous.close()
	}

	unsubscribe := func() {
		h.mu.Lock()
		// A newer subscription may already have replaced this one.
		if h.subscribers[guildID] == sub {
			delete(h.subscribers, guildID)
		}
		h.mu.Unlock()

		sub.close()
	}

	return sub.events, unsubscribe
}

// emit delivers the event to the guild's subscriber.
func (h *nodeEventHub) emit(guildID snowflake.ID, event domain.NodeEvent) {
	h.mu.RLock()
	sub, ok := h.subscribers[guildID]
	h.mu.RUnlock()

	if !ok {
		slog.Debug("dropping node event without subscriber", "guild", guildID)
		return
	}

	sub.send(guildID, event)
}

// closeAll closes every subscription.
func (h *nodeEventHub) closeAll() {
	h.mu.Lock()
	subscribers := h.subscribers
	h.subscribers = make(map[snowflake.ID]*nodeSubscription)
	h.mu.Unlock()

	for _, sub := range subscribers {
		sub.close()
	}
}
