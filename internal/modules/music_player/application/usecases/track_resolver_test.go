package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func TestTrackResolverService_Fetch(t *testing.T) {
	singleTrackResult := &ports.LoadResult{
		Type: ports.LoadTypeTrack,
		Tracks: []domain.Track{
			{Encoded: "encoded-1", Title: "Single Track", Duration: 3 * time.Minute},
		},
	}

	searchResult := &ports.LoadResult{
		Type: ports.LoadTypeSearch,
		Tracks: []domain.Track{
			{Encoded: "search-1", Title: "Search Result 1"},
			{Encoded: "search-2", Title: "Search Result 2"},
			{Encoded: "search-3", Title: "Search Result 3"},
		},
	}

	playlistResult := &ports.LoadResult{
		Type:         ports.LoadTypePlaylist,
		PlaylistName: "My Awesome Playlist",
		Tracks: []domain.Track{
			{Encoded: "playlist-1", Title: "Playlist Track 1"},
			{Encoded: "playlist-2", Title: "Playlist Track 2"},
		},
	}

	tests := []struct {
		name             string
		query            string
		setupLoader      func(*mockTrackLoader)
		wantErr          error
		wantQuery        string
		wantTrackCount   int
		wantPlaylistName string
		wantFirstTitle   string
	}{
		{
			name:  "url is passed through",
			query: "https://youtube.com/watch?v=123",
			setupLoader: func(m *mockTrackLoader) {
				m.loadResult = singleTrackResult
			},
			wantQuery:      "https://youtube.com/watch?v=123",
			wantTrackCount: 1,
			wantFirstTitle: "Single Track",
		},
		{
			name:  "search term is prefixed and keeps node order",
			query: "test song",
			setupLoader: func(m *mockTrackLoader) {
				m.loadResult = searchResult
			},
			wantQuery:      "ytsearch:test song",
			wantTrackCount: 3,
			wantFirstTitle: "Search Result 1",
		},
		{
			name:  "playlist reports its name",
			query: "https://youtube.com/playlist?list=abc",
			setupLoader: func(m *mockTrackLoader) {
				m.loadResult = playlistResult
			},
			wantQuery:        "https://youtube.com/playlist?list=abc",
			wantTrackCount:   2,
			wantPlaylistName: "My Awesome Playlist",
			wantFirstTitle:   "Playlist Track 1",
		},
		{
			name:  "empty result",
			query: "nothing",
			setupLoader: func(m *mockTrackLoader) {
				m.loadResult = &ports.LoadResult{Type: ports.LoadTypeEmpty}
			},
			wantQuery: "ytsearch:nothing",
			wantErr:   domain.ErrNoMatches,
		},
		{
			name:  "search without tracks",
			query: "nothing",
			setupLoader: func(m *mockTrackLoader) {
				m.loadResult = &ports.LoadResult{Type: ports.LoadTypeSearch}
			},
			wantQuery: "ytsearch:nothing",
			wantErr:   domain.ErrNoMatches,
		},
		{
			name:  "load error",
			query: "broken",
			setupLoader: func(m *mockTrackLoader) {
				m.loadResult = &ports.LoadResult{Type: ports.LoadTypeError, ErrorMessage: "unavailable"}
			},
			wantQuery: "ytsearch:broken",
			wantErr:   domain.ErrLoadFailed,
		},
		{
			name:  "transport failure",
			query: "anything",
			setupLoader: func(m *mockTrackLoader) {
				m.loadErr = errors.New("connection refused")
			},
			wantQuery: "ytsearch:anything",
			wantErr:   domain.ErrNodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &mockTrackLoader{}
			tt.setupLoader(loader)
			service := NewTrackResolverService(loader, domain.SourceYouTube)

			result, err := service.Fetch(context.Background(), tt.query)

			if len(loader.queries) != 1 || loader.queries[0] != tt.wantQuery {
				t.Errorf("expected node query %q, got %v", tt.wantQuery, loader.queries)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Tracks) != tt.wantTrackCount {
				t.Errorf("expected %d tracks, got %d", tt.wantTrackCount, len(result.Tracks))
			}
			if result.PlaylistName != tt.wantPlaylistName {
				t.Errorf("expected playlist name %q, got %q", tt.wantPlaylistName, result.PlaylistName)
			}
			if result.Tracks[0].Title != tt.wantFirstTitle {
				t.Errorf("expected first title %q, got %q", tt.wantFirstTitle, result.Tracks[0].Title)
			}
		})
	}
}

func TestTrackResolverService_FetchBlankQuery(t *testing.T) {
	loader := &mockTrackLoader{}
	service := NewTrackResolverService(loader, "")

	_, err := service.Fetch(context.Background(), "   ")

	if !errors.Is(err, domain.ErrNoMatches) {
		t.Fatalf("expected ErrNoMatches, got %v", err)
	}
	if len(loader.queries) != 0 {
		t.Errorf("expected no node lookup, got %v", loader.queries)
	}
}
