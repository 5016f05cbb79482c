package usecases

import (
	"errors"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// ErrUserNotInVoice is returned when the user is not in a voice channel.
var ErrUserNotInVoice = errors.New("you must be in a voice channel")

// Domain errors re-exported for the presentation layer.
var (
	ErrNoMatches        = domain.ErrNoMatches
	ErrLoadFailed       = domain.ErrLoadFailed
	ErrSilentVolume     = domain.ErrSilentVolume
	ErrLoudVolume       = domain.ErrLoudVolume
	ErrEmptyQueue       = domain.ErrEmptyQueue
	ErrAlreadyPlaying   = domain.ErrAlreadyPlaying
	ErrPermissionDenied = domain.ErrPermissionDenied
	ErrNodeUnavailable  = domain.ErrNodeUnavailable
	ErrIndexOutOfRange  = domain.ErrIndexOutOfRange
	ErrNotConnected     = domain.ErrNotConnected
	ErrNotPlaying       = domain.ErrNotPlaying
	ErrSeekOutOfRange   = domain.ErrSeekOutOfRange
)
