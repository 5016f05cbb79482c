package domain

import (
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Track represents a playable audio track.
// Tracks are values: once created they are only copied, never mutated in place.
type Track struct {
	Encoded     string // Opaque payload understood by the audio node
	Identifier  string // Source-specific identifier (e.g., YouTube video ID)
	Title       string
	Author      string
	Duration    time.Duration
	URI         string
	ArtworkURL  string
	SourceName  string // e.g., "youtube", "spotify", "soundcloud"
	IsStream    bool
	RequesterID snowflake.ID // Discord user who added the track
	EnqueuedAt  time.Time
}

// Source returns the parsed TrackSource for this track.
func (t Track) Source() TrackSource {
	return ParseTrackSource(t.SourceName)
}

// RequestedBy returns a copy of the track attributed to the given requester.
func (t Track) RequestedBy(requesterID snowflake.ID, at time.Time) Track {
	t.RequesterID = requesterID
	t.EnqueuedAt = at.UTC()
	return t
}

// IsValid returns true if the track has the minimum required fields.
func (t Track) IsValid() bool {
	return t.Encoded != "" && t.Title != ""
}

// IsSeekable returns true if the position inside the track can be changed.
func (t Track) IsSeekable() bool {
	return !t.IsStream && t.Duration > 0
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}
	return FormatDuration(t.Duration)
}

// FormatDuration formats d as mm:ss, or hh:mm:ss when it spans an hour or more.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
