package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

const DefaultPageSize = 10

// QueueInput identifies the guild and requester of a queue command.
type QueueInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
}

// QueueListInput contains the input for the QueueList use case.
type QueueListInput struct {
	GuildID  snowflake.ID
	Page     int // 1-indexed page number
	PageSize int // Items per page (optional, defaults to 10)
}

// QueueListOutput contains the result of the QueueList use case.
type QueueListOutput struct {
	Snapshot    Snapshot
	Tracks      []domain.Track // Tracks on the requested page
	Offset      int            // Number of tracks before this page
	TotalTracks int
	CurrentPage int
	TotalPages  int
}

// QueuePositionInput contains the input for use cases addressing one queued track.
type QueuePositionInput struct {
	QueueInput
	Position int // 1-indexed position in the queue
}

// QueueTrackOutput contains the track affected by a queue use case.
type QueueTrackOutput struct {
	Track domain.Track
}

// QueueTracksOutput contains the tracks dropped by a queue use case.
type QueueTracksOutput struct {
	Removed []domain.Track
}

// QueueService handles queue operations.
type QueueService struct {
	sessions   *session.Registry
	authorizer ports.Authorizer
}

// NewQueueService creates a new QueueService.
func NewQueueService(
	sessions *session.Registry,
	authorizer ports.Authorizer,
) *QueueService {
	return &QueueService{
		sessions:   sessions,
		authorizer: authorizer,
	}
}

// List returns the current queue with pagination.
func (q *QueueService) List(input QueueListInput) (*QueueListOutput, error) {
	s, ok := q.sessions.Lookup(input.GuildID)
	if !ok {
		return nil, domain.ErrNotConnected
	}
	snapshot := s.Snapshot()

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(snapshot.Queue)
	totalPages := max((total+pageSize-1)/pageSize, 1)
	page := min(max(input.Page, 1), totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	return &QueueListOutput{
		Snapshot:    snapshot,
		Tracks:      snapshot.Queue[start:end],
		Offset:      start,
		TotalTracks: total,
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

// Remove removes one track. Users may remove their own tracks; other tracks
// require the right to manage the queue.
func (q *QueueService) Remove(ctx context.Context, input QueuePositionInput) (*QueueTrackOutput, error) {
	s, ok := q.sessions.Lookup(input.GuildID)
	if !ok {
		return nil, domain.ErrNotConnected
	}

	actor, err := q.authorizer.Actor(ctx, input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}

	track, err := s.Remove(actor, input.Position, input.requestContext())
	if err != nil {
		return nil, err
	}
	return &QueueTrackOutput{Track: track}, nil
}

// Promote moves one track to the front of the queue.
func (q *QueueService) Promote(_ context.Context, input QueuePositionInput) (*QueueTrackOutput, error) {
	s, ok := q.sessions.Lookup(input.GuildID)
	if !ok {
		return nil, domain.ErrNotConnected
	}

	track, err := s.Promote(input.Position, input.requestContext())
	if err != nil {
		return nil, err
	}
	return &QueueTrackOutput{Track: track}, nil
}

// Shuffle randomly reorders the queue.
func (q *QueueService) Shuffle(_ context.Context, input QueueInput) error {
	s, ok := q.sessions.Lookup(input.GuildID)
	if !ok {
		return domain.ErrNotConnected
	}
	if len(s.Snapshot().Queue) == 0 {
		return domain.ErrEmptyQueue
	}
	return s.Shuffle(input.requestContext())
}

// Prune drops the tracks selected by the configured prune policy.
func (q *QueueService) Prune(_ context.Context, input QueueInput) (*QueueTracksOutput, error) {
	s, ok := q.sessions.Lookup(input.GuildID)
	if !ok {
		return nil, domain.ErrNotConnected
	}

	removed, err := s.Prune(input.requestContext())
	if err != nil {
		return nil, err
	}
	return &QueueTracksOutput{Removed: removed}, nil
}

// Clear drops every queued track. It requires the right to manage the queue.
func (q *QueueService) Clear(ctx context.Context, input QueueInput) (*QueueTracksOutput, error) {
	s, ok := q.sessions.Lookup(input.GuildID)
	if !ok {
		return nil, domain.ErrNotConnected
	}

	actor, err := q.authorizer.Actor(ctx, input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if !s.ManageableFor(actor) {
		return nil, domain.ErrPermissionDenied
	}

	removed, err := s.Clear(input.requestContext())
	if err != nil {
		return nil, err
	}
	return &QueueTracksOutput{Removed: removed}, nil
}

func (in QueueInput) requestContext() *domain.RequestContext {
	return requestContext(in.UserID, in.NotificationChannelID)
}
