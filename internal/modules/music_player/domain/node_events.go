package domain

import "time"

// TrackEndReason represents why a track ended on the node.
type TrackEndReason string

const (
	// TrackEndFinished means the track finished normally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndLoadFailed means the track failed to load.
	TrackEndLoadFailed TrackEndReason = "load_failed"
	// TrackEndStopped means the track was stopped.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndReplaced means the track was replaced by another.
	TrackEndReplaced TrackEndReason = "replaced"
	// TrackEndCleanup means the node cleaned up the player.
	TrackEndCleanup TrackEndReason = "cleanup"
)

// ShouldAdvanceQueue returns true if this end reason should advance the queue.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed || r == TrackEndStopped
}

// NodeEvent is an event reported by the audio node for one guild's player.
type NodeEvent interface {
	nodeEvent()
}

// NodePlayerUpdate reports the node's playback position at a point in time.
type NodePlayerUpdate struct {
	Position time.Duration
	At       time.Time
}

// NodeTrackStart reports that the node started rendering a track.
type NodeTrackStart struct {
	Encoded string
}

// NodeTrackEnd reports that the node stopped rendering a track.
type NodeTrackEnd struct {
	Encoded string
	Reason  TrackEndReason
}

// NodeTrackError reports a track exception or a stuck track.
type NodeTrackError struct {
	Encoded  string
	Message  string
	Severity string
}

func (NodePlayerUpdate) nodeEvent() {}
func (NodeTrackStart) nodeEvent()   {}
func (NodeTrackEnd) nodeEvent()     {}
func (NodeTrackError) nodeEvent()   {}
