package ports

import (
	"context"
)

// TrackLoader defines the interface for looking up tracks on the audio node.
type TrackLoader interface {
	// LoadTracks resolves a URL or a prefixed search query.
	LoadTracks(ctx context.Context, query string) (*LoadResult, error)
}
