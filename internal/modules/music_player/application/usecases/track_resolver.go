package usecases

import (
	"context"
	"fmt"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// FetchResult contains the tracks found for a query.
type FetchResult struct {
	Type         ports.LoadType
	Tracks       []domain.Track
	PlaylistName string
}

// IsPlaylist returns true if the query resolved to a playlist.
func (r *FetchResult) IsPlaylist() bool {
	return r.Type == ports.LoadTypePlaylist
}

// IsSearch returns true if the tracks are search candidates rather than a direct hit.
func (r *FetchResult) IsSearch() bool {
	return r.Type == ports.LoadTypeSearch
}

// TrackResolverService turns user queries into playable tracks.
type TrackResolverService struct {
	loader ports.TrackLoader
	source domain.SearchSource
}

// NewTrackResolverService creates a new TrackResolverService that searches
// non-URL queries on the given source.
func NewTrackResolverService(loader ports.TrackLoader, source domain.SearchSource) *TrackResolverService {
	if source == "" {
		source = domain.SourceYouTube
	}
	return &TrackResolverService{
		loader: loader,
		source: source,
	}
}

// Fetch resolves a URL or search term. Tracks are returned in node order.
func (s *TrackResolverService) Fetch(ctx context.Context, query string) (*FetchResult, error) {
	identifier := domain.NormalizeQuery(query, s.source)
	if identifier == "" {
		return nil, domain.ErrNoMatches
	}

	result, err := s.loader.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNodeUnavailable, err)
	}

	switch result.Type {
	case ports.LoadTypeError:
		return nil, fmt.Errorf("%w: %s", domain.ErrLoadFailed, result.ErrorMessage)
	case ports.LoadTypeEmpty:
		return nil, domain.ErrNoMatches
	}
	if len(result.Tracks) == 0 {
		return nil, domain.ErrNoMatches
	}

	return &FetchResult{
		Type:         result.Type,
		Tracks:       result.Tracks,
		PlaylistName: result.PlaylistName,
	}, nil
}
