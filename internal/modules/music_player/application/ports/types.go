package ports

import (
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// LoadResult represents the result of loading tracks.
type LoadResult struct {
	Type         LoadType
	Tracks       []domain.Track
	PlaylistName string // Set for LoadTypePlaylist
	ErrorMessage string // Set for LoadTypeError
}

// LoadType represents the type of load result.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// Notification is a message addressed to a text channel.
type Notification struct {
	Heading     string
	Title       string
	Description string
	URL         string
	Color       int
	Fields      []NotificationField
	Footer      string
	FooterIcon  string
	Timestamp   time.Time
	Track       *domain.Track // Set for track notifications; used to pick the artwork
}

// NotificationField is a name/value pair shown in a notification.
type NotificationField struct {
	Name  string
	Value string
}
