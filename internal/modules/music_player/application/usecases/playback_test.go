package usecases

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func TestPlaybackService_Play(t *testing.T) {
	searchResult := &ports.LoadResult{
		Type:   ports.LoadTypeSearch,
		Tracks: []domain.Track{mockTrack("S1"), mockTrack("S2")},
	}
	playlistResult := &ports.LoadResult{
		Type:         ports.LoadTypePlaylist,
		PlaylistName: "Mix",
		Tracks:       []domain.Track{mockTrack("P1"), mockTrack("P2")},
	}

	tests := []struct {
		name         string
		connect      bool
		queued       []string
		query        string
		loadResult   *ports.LoadResult
		wantErr      error
		wantAdded    []string
		wantStarted  bool
		wantPlayed   []string
		wantPlaylist string
	}{
		{
			name:       "not connected",
			query:      "song",
			loadResult: searchResult,
			wantErr:    domain.ErrNotConnected,
		},
		{
			name:        "search adds best match and starts",
			connect:     true,
			query:       "song",
			loadResult:  searchResult,
			wantAdded:   []string{"S1"},
			wantStarted: true,
			wantPlayed:  []string{"S1"},
		},
		{
			name:         "playlist adds everything",
			connect:      true,
			query:        "https://example.com/list",
			loadResult:   playlistResult,
			wantAdded:    []string{"P1", "P2"},
			wantStarted:  true,
			wantPlayed:   []string{"P1"},
			wantPlaylist: "Mix",
		},
		{
			name:        "no query plays queue",
			connect:     true,
			queued:      []string{"A"},
			wantStarted: true,
			wantPlayed:  []string{"A"},
		},
		{
			name:    "no query on empty queue",
			connect: true,
			wantErr: domain.ErrEmptyQueue,
		},
		{
			name:       "no matches",
			connect:    true,
			query:      "nothing",
			loadResult: &ports.LoadResult{Type: ports.LoadTypeEmpty},
			wantErr:    domain.ErrNoMatches,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.loader.loadResult = tt.loadResult
			if tt.connect {
				f.connect(tt.queued...)
			}
			service := NewPlaybackService(f.sessions, f.resolver)

			output, err := service.Play(context.Background(), PlayInput{
				GuildID:               testGuild,
				UserID:                bob,
				NotificationChannelID: testTextChannel,
				Query:                 tt.query,
			})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil {
				return
			}
			added := make([]string, len(output.Added))
			for i, track := range output.Added {
				added[i] = track.Title
				if track.RequesterID != bob {
					t.Errorf("expected requester %d, got %d", bob, track.RequesterID)
				}
			}
			if len(tt.wantAdded) > 0 && !slices.Equal(added, tt.wantAdded) {
				t.Errorf("expected added %v, got %v", tt.wantAdded, added)
			}
			if output.Started != tt.wantStarted {
				t.Errorf("expected started=%v, got %v", tt.wantStarted, output.Started)
			}
			if output.PlaylistName != tt.wantPlaylist {
				t.Errorf("expected playlist %q, got %q", tt.wantPlaylist, output.PlaylistName)
			}
			if !slices.Equal(f.node.played, tt.wantPlayed) {
				t.Errorf("expected node to play %v, got %v", tt.wantPlayed, f.node.played)
			}
		})
	}
}

func TestPlaybackService_PlayWhilePlayingOnlyQueues(t *testing.T) {
	f := newFixture()
	s := f.connect("A")
	_ = s.Play(context.Background(), nil)
	f.loader.loadResult = &ports.LoadResult{Type: ports.LoadTypeTrack, Tracks: []domain.Track{mockTrack("B")}}
	service := NewPlaybackService(f.sessions, f.resolver)

	output, err := service.Play(context.Background(), PlayInput{GuildID: testGuild, UserID: alice, Query: "https://example.com/b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Started {
		t.Error("expected playback not to be restarted")
	}
	if got := s.Snapshot().Current.Title; got != "A" {
		t.Errorf("expected A to keep playing, got %q", got)
	}
}

func TestPlaybackService_PlayResumesPause(t *testing.T) {
	f := newFixture()
	s := f.connect("A", "B")
	_ = s.Play(context.Background(), nil)
	_ = s.Pause(context.Background(), false, nil)
	service := NewPlaybackService(f.sessions, f.resolver)

	output, err := service.Play(context.Background(), PlayInput{GuildID: testGuild, UserID: alice})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !output.Started || f.node.resumes != 1 {
		t.Errorf("expected playback to be resumed, got started=%v resumes=%d", output.Started, f.node.resumes)
	}
	if got := s.Snapshot().Current.Title; got != "A" {
		t.Errorf("expected A to stay current, got %q", got)
	}
}

func TestPlaybackService_RequiresConnection(t *testing.T) {
	f := newFixture()
	service := NewPlaybackService(f.sessions, f.resolver)
	input := PlaybackInput{GuildID: testGuild, UserID: alice}
	ctx := context.Background()

	if err := service.Pause(ctx, input); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("pause: expected ErrNotConnected, got %v", err)
	}
	if err := service.Resume(ctx, input); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("resume: expected ErrNotConnected, got %v", err)
	}
	if _, err := service.Skip(ctx, input); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("skip: expected ErrNotConnected, got %v", err)
	}
	if err := service.Seek(ctx, SeekInput{PlaybackInput: input, Position: time.Second}); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("seek: expected ErrNotConnected, got %v", err)
	}
	if err := service.SetReplay(ctx, SetReplayInput{PlaybackInput: input, Replay: true}); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("replay: expected ErrNotConnected, got %v", err)
	}
	if _, err := service.NowPlaying(testGuild); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("now playing: expected ErrNotConnected, got %v", err)
	}
}

func TestPlaybackService_SetVolumeWithoutConnection(t *testing.T) {
	f := newFixture()
	service := NewPlaybackService(f.sessions, f.resolver)

	err := service.SetVolume(context.Background(), SetVolumeInput{
		PlaybackInput: PlaybackInput{GuildID: testGuild, UserID: alice},
		Volume:        42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := f.sessions.Len(); n != 0 {
		t.Errorf("expected no session to be created, got %d", n)
	}
	if got := f.sessions.Get(testGuild).Snapshot().Volume; got != 42 {
		t.Errorf("expected volume 42, got %d", got)
	}
}

func TestPlaybackService_Skip(t *testing.T) {
	f := newFixture()
	s := f.connect("A", "B")
	_ = s.Play(context.Background(), nil)
	service := NewPlaybackService(f.sessions, f.resolver)

	output, err := service.Skip(context.Background(), PlaybackInput{GuildID: testGuild, UserID: alice})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.SkippedTrack == nil || output.SkippedTrack.Title != "A" {
		t.Errorf("expected A skipped, got %v", output.SkippedTrack)
	}
	if f.node.stops != 1 {
		t.Errorf("expected 1 node stop, got %d", f.node.stops)
	}
}
