package usecases

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// DefaultAutocompleteLimit is the default number of suggestions, leaving room
// for the "add whole playlist" option within Discord's limit of 25.
const DefaultAutocompleteLimit = 24

// SuggestTracksInput contains the input for the SuggestTracks use case.
type SuggestTracksInput struct {
	Query string
	Limit int
}

// SuggestTracksOutput contains the suggestions for a play query.
type SuggestTracksOutput struct {
	IsPlaylist   bool
	PlaylistName string
	PlaylistURL  string // Original URL for the "add all" option
	TrackCount   int    // Total tracks in the playlist
	Tracks       []domain.Track
}

// AutocompleteService handles autocomplete-related operations.
type AutocompleteService struct {
	sessions *session.Registry
	resolver *TrackResolverService
}

// NewAutocompleteService creates a new AutocompleteService.
func NewAutocompleteService(
	sessions *session.Registry,
	resolver *TrackResolverService,
) *AutocompleteService {
	return &AutocompleteService{
		sessions: sessions,
		resolver: resolver,
	}
}

// QueueTracks returns the queued tracks of the guild for position suggestions.
func (s *AutocompleteService) QueueTracks(guildID snowflake.ID) []domain.Track {
	sess, ok := s.sessions.Lookup(guildID)
	if !ok {
		return nil
	}
	return sess.Snapshot().Queue
}

// SuggestTracks loads candidates for a play query. Playlists are reported
// with their metadata so that the whole playlist can be offered as one option.
func (s *AutocompleteService) SuggestTracks(
	ctx context.Context,
	input SuggestTracksInput,
) (*SuggestTracksOutput, error) {
	if input.Query == "" {
		return &SuggestTracksOutput{}, nil
	}

	result, err := s.resolver.Fetch(ctx, input.Query)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatches) || errors.Is(err, domain.ErrLoadFailed) {
			return &SuggestTracksOutput{}, nil
		}
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultAutocompleteLimit
	}

	tracks := result.Tracks
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	return &SuggestTracksOutput{
		IsPlaylist:   result.IsPlaylist(),
		PlaylistName: result.PlaylistName,
		PlaylistURL:  input.Query,
		TrackCount:   len(result.Tracks),
		Tracks:       tracks,
	}, nil
}
