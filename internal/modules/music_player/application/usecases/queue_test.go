package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

func TestQueueService_List(t *testing.T) {
	tests := []struct {
		name          string
		queued        int
		page          int
		pageSize      int
		wantCount     int
		wantOffset    int
		wantPage      int
		wantPageCount int
	}{
		{name: "empty", queued: 0, page: 1, wantCount: 0, wantPage: 1, wantPageCount: 1},
		{name: "first page", queued: 15, page: 1, wantCount: 10, wantPage: 1, wantPageCount: 2},
		{name: "last page", queued: 15, page: 2, wantCount: 5, wantOffset: 10, wantPage: 2, wantPageCount: 2},
		{name: "page past end is clamped", queued: 15, page: 9, wantCount: 5, wantOffset: 10, wantPage: 2, wantPageCount: 2},
		{name: "custom page size", queued: 5, page: 2, pageSize: 2, wantCount: 2, wantOffset: 2, wantPage: 2, wantPageCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			names := make([]string, tt.queued)
			for i := range names {
				names[i] = string(rune('a' + i))
			}
			f.connect(names...)
			service := NewQueueService(f.sessions, f.authorizer)

			output, err := service.List(QueueListInput{GuildID: testGuild, Page: tt.page, PageSize: tt.pageSize})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(output.Tracks) != tt.wantCount {
				t.Errorf("expected %d tracks, got %d", tt.wantCount, len(output.Tracks))
			}
			if output.Offset != tt.wantOffset {
				t.Errorf("expected offset %d, got %d", tt.wantOffset, output.Offset)
			}
			if output.CurrentPage != tt.wantPage {
				t.Errorf("expected page %d, got %d", tt.wantPage, output.CurrentPage)
			}
			if output.TotalPages != tt.wantPageCount {
				t.Errorf("expected %d pages, got %d", tt.wantPageCount, output.TotalPages)
			}
			if output.TotalTracks != tt.queued {
				t.Errorf("expected %d total tracks, got %d", tt.queued, output.TotalTracks)
			}
		})
	}
}

func TestQueueService_ListWithoutSession(t *testing.T) {
	service := NewQueueService(newFixture().sessions, &mockAuthorizer{})

	if _, err := service.List(QueueListInput{GuildID: testGuild}); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestQueueService_Remove(t *testing.T) {
	tests := []struct {
		name    string
		userID  snowflake.ID
		actor   *domain.Actor
		wantErr error
	}{
		{name: "requester", userID: alice},
		{name: "other user", userID: bob, wantErr: domain.ErrPermissionDenied},
		{name: "dj", userID: bob, actor: &domain.Actor{ID: bob, IsDJ: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.voice.listeners = []snowflake.ID{alice, bob}
			if tt.actor != nil {
				f.authorizer.actors[tt.userID] = *tt.actor
			}
			f.connect("A")
			service := NewQueueService(f.sessions, f.authorizer)

			output, err := service.Remove(context.Background(), QueuePositionInput{
				QueueInput: QueueInput{GuildID: testGuild, UserID: tt.userID},
				Position:   1,
			})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err == nil && output.Track.Title != "A" {
				t.Errorf("expected A removed, got %q", output.Track.Title)
			}
		})
	}
}

func TestQueueService_RemoveAuthorizerFailure(t *testing.T) {
	f := newFixture()
	f.connect("A")
	f.authorizer.err = errors.New("member not cached")
	service := NewQueueService(f.sessions, f.authorizer)

	_, err := service.Remove(context.Background(), QueuePositionInput{
		QueueInput: QueueInput{GuildID: testGuild, UserID: alice},
		Position:   1,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestQueueService_Promote(t *testing.T) {
	f := newFixture()
	s := f.connect("A", "B", "C")
	service := NewQueueService(f.sessions, f.authorizer)

	output, err := service.Promote(context.Background(), QueuePositionInput{
		QueueInput: QueueInput{GuildID: testGuild, UserID: bob},
		Position:   3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Track.Title != "C" {
		t.Errorf("expected C promoted, got %q", output.Track.Title)
	}
	if got := s.Snapshot().Queue[0].Title; got != "C" {
		t.Errorf("expected C at the front, got %q", got)
	}
}

func TestQueueService_ShuffleEmptyQueue(t *testing.T) {
	f := newFixture()
	f.connect()
	service := NewQueueService(f.sessions, f.authorizer)

	err := service.Shuffle(context.Background(), QueueInput{GuildID: testGuild, UserID: alice})
	if !errors.Is(err, domain.ErrEmptyQueue) {
		t.Errorf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestQueueService_Clear(t *testing.T) {
	tests := []struct {
		name      string
		userID    snowflake.ID
		actor     *domain.Actor
		wantErr   error
		wantCount int
	}{
		{name: "requester of everything", userID: alice, wantCount: 2},
		{name: "other user", userID: bob, wantErr: domain.ErrPermissionDenied},
		{name: "moderator", userID: bob, actor: &domain.Actor{ID: bob, PermissionLevel: domain.ModeratorLevel}, wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.voice.listeners = []snowflake.ID{alice, bob}
			if tt.actor != nil {
				f.authorizer.actors[tt.userID] = *tt.actor
			}
			s := f.connect("A", "B")
			service := NewQueueService(f.sessions, f.authorizer)

			output, err := service.Clear(context.Background(), QueueInput{GuildID: testGuild, UserID: tt.userID})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil {
				if n := len(s.Snapshot().Queue); n != 2 {
					t.Errorf("expected queue unchanged, got %d tracks", n)
				}
				return
			}
			if len(output.Removed) != tt.wantCount {
				t.Errorf("expected %d removed, got %d", tt.wantCount, len(output.Removed))
			}
		})
	}
}
