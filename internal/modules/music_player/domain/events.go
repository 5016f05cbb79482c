package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// Event is a domain event published by a session.
type Event interface {
	Header() EventHeader
}

// EventHeader is carried by every event.
type EventHeader struct {
	ID         uuid.UUID
	GuildID    snowflake.ID
	OccurredAt time.Time
	Session    Snapshot
	Context    *RequestContext // nil for node-originated events
}

// NewEventHeader creates a header for an event about the given session snapshot.
func NewEventHeader(snapshot Snapshot, rc *RequestContext, at time.Time) EventHeader {
	return EventHeader{
		ID:         uuid.New(),
		GuildID:    snapshot.GuildID,
		OccurredAt: at.UTC(),
		Session:    snapshot,
		Context:    rc,
	}
}

// Header returns the header itself, so that embedding it satisfies Event.
func (h EventHeader) Header() EventHeader {
	return h
}

// TracksAddedEvent is published when tracks are appended to the queue.
type TracksAddedEvent struct {
	EventHeader
	Tracks []Track
}

// ReplayUpdatedEvent is published when the replay flag changes.
type ReplayUpdatedEvent struct {
	EventHeader
	Replay bool
}

// VolumeUpdatedEvent is published when the volume changes.
type VolumeUpdatedEvent struct {
	EventHeader
	Previous int
	Volume   int
}

// SeekUpdatedEvent is published when the node acknowledged a seek.
type SeekUpdatedEvent struct {
	EventHeader
	Position time.Duration
}

// ConnectedEvent is published when the session joined a voice channel.
type ConnectedEvent struct {
	EventHeader
	ChannelID snowflake.ID
}

// SwitchedEvent is published when the session moved to another voice channel.
type SwitchedEvent struct {
	EventHeader
	PreviousChannelID snowflake.ID
	ChannelID         snowflake.ID
}

// LeftEvent is published when the session left its voice channel.
type LeftEvent struct {
	EventHeader
	ChannelID *snowflake.ID // nil if the session was not attached
}

// PlaybackStartedEvent is published when Play dispatched a track.
type PlaybackStartedEvent struct {
	EventHeader
	Track Track
}

// PausedEvent is published when playback was paused.
type PausedEvent struct {
	EventHeader
	SystemPaused bool // true if paused automatically rather than by a user
}

// ResumedEvent is published when playback was resumed.
type ResumedEvent struct {
	EventHeader
}

// SkippedEvent is published when the current track was stopped on request.
type SkippedEvent struct {
	EventHeader
	Track Track
}

// PrunedEvent is published when tracks were dropped from the queue in bulk.
type PrunedEvent struct {
	EventHeader
	Removed []Track
}

// QueueShuffledEvent is published when the queue was shuffled.
type QueueShuffledEvent struct {
	EventHeader
}

// QueuePromotedEvent is published when a queued track was moved to the front.
type QueuePromotedEvent struct {
	EventHeader
	Track    Track
	Position int // 1-based position the track was moved from
}

// TrackRemovedEvent is published when a single track was removed from the queue.
type TrackRemovedEvent struct {
	EventHeader
	Track    Track
	Position int // 1-based
}

// PlayerUpdatedEvent is published when the node reported the playback position.
type PlayerUpdatedEvent struct {
	EventHeader
	Position time.Duration
}

// TrackStartedEvent is published when the node started rendering a track.
type TrackStartedEvent struct {
	EventHeader
	Track *Track // nil if the node started something other than the current track
}

// TrackExceptionEvent is published when the node reported a track error,
// or when advancing to the next track failed.
type TrackExceptionEvent struct {
	EventHeader
	Track    *Track
	Message  string
	Severity string
}

// TrackEndedEvent is published when the current track ended and the queue was advanced.
type TrackEndedEvent struct {
	EventHeader
	Track  Track
	Reason TrackEndReason
	Next   *Track // nil if playback stopped
}
