package domain

import "errors"

var (
	// ErrNoMatches is returned when a lookup yields no tracks.
	ErrNoMatches = errors.New("no matches found")

	// ErrLoadFailed is returned when the node reports a lookup error.
	ErrLoadFailed = errors.New("failed to load tracks")

	// ErrSilentVolume is returned for a volume at or below zero.
	ErrSilentVolume = errors.New("volume must be greater than 0")

	// ErrLoudVolume is returned for a volume above MaxVolume.
	ErrLoudVolume = errors.New("volume must not exceed 200")

	// ErrEmptyQueue is returned when playback is requested with nothing queued.
	ErrEmptyQueue = errors.New("the queue is empty")

	// ErrAlreadyPlaying is returned when playback is requested while already playing.
	ErrAlreadyPlaying = errors.New("already playing")

	// ErrPermissionDenied is returned when the actor may not perform a queue mutation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNodeUnavailable is returned when the audio node fails, times out or is unreachable.
	ErrNodeUnavailable = errors.New("audio node unavailable")

	// ErrIndexOutOfRange is returned for a queue position that does not exist.
	ErrIndexOutOfRange = errors.New("queue position out of range")

	// ErrNotConnected is returned when an operation requires a voice connection.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrAlreadyConnected is returned when connecting a session that is already attached.
	ErrAlreadyConnected = errors.New("already connected to a voice channel")

	// ErrNotPlaying is returned when an operation requires a current track.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrSeekOutOfRange is returned for a seek position outside the current track.
	ErrSeekOutOfRange = errors.New("seek position out of range")

	// ErrSessionReleased is returned when mutating a session that was removed from its registry.
	ErrSessionReleased = errors.New("session has been released")
)
