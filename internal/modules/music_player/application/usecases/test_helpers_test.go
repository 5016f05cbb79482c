package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

const (
	testGuild       = snowflake.ID(100)
	testChannel     = snowflake.ID(200)
	testTextChannel = snowflake.ID(300)
	alice           = snowflake.ID(1)
	bob             = snowflake.ID(2)
)

func mockTrack(name string) domain.Track {
	return domain.Track{
		Encoded:  "encoded-" + name,
		Title:    name,
		Author:   "Artist",
		Duration: 3 * time.Minute,
	}
}

type mockAudioNode struct {
	mu       sync.Mutex
	joinErr  error
	playErr  error
	joins    []snowflake.ID
	switches []snowflake.ID
	played   []string
	pauses   int
	resumes  int
	stops    int
}

func (m *mockAudioNode) Join(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joins = append(m.joins, channelID)
	return nil
}

func (m *mockAudioNode) Leave(_ context.Context, _ snowflake.ID) error {
	return nil
}

func (m *mockAudioNode) SwitchChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switches = append(m.switches, channelID)
	return nil
}

func (m *mockAudioNode) Play(_ context.Context, _ snowflake.ID, track domain.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, track.Title)
	return nil
}

func (m *mockAudioNode) Pause(_ context.Context, _ snowflake.ID, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauses++
	return nil
}

func (m *mockAudioNode) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumes++
	return nil
}

func (m *mockAudioNode) Stop(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

func (m *mockAudioNode) Seek(_ context.Context, _ snowflake.ID, _ time.Duration) error {
	return nil
}

func (m *mockAudioNode) SetVolume(_ context.Context, _ snowflake.ID, _ int) error {
	return nil
}

func (m *mockAudioNode) Subscribe(_ snowflake.ID) (<-chan domain.NodeEvent, func()) {
	events := make(chan domain.NodeEvent)
	var once sync.Once
	return events, func() { once.Do(func() { close(events) }) }
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type mockVoiceStateProvider struct {
	channels  map[snowflake.ID]snowflake.ID // userID -> channelID
	listeners []snowflake.ID
	err       error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, userID snowflake.ID) (*snowflake.ID, error) {
	if m.err != nil {
		return nil, m.err
	}
	channelID, ok := m.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

func (m *mockVoiceStateProvider) Listeners(_, _ snowflake.ID) ([]snowflake.ID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.listeners, nil
}

type mockAuthorizer struct {
	actors map[snowflake.ID]domain.Actor
	err    error
}

func (m *mockAuthorizer) Actor(_ context.Context, _, userID snowflake.ID) (domain.Actor, error) {
	if m.err != nil {
		return domain.Actor{}, m.err
	}
	if actor, ok := m.actors[userID]; ok {
		return actor, nil
	}
	return domain.Actor{ID: userID}, nil
}

type mockGuildSettings struct{}

func (mockGuildSettings) DefaultVolume(_ snowflake.ID) int {
	return session.DefaultVolume
}

type mockTrackLoader struct {
	loadErr    error
	loadResult *ports.LoadResult
	queries    []string
}

func (m *mockTrackLoader) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	m.queries = append(m.queries, query)
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.loadResult, nil
}

type fixture struct {
	node       *mockAudioNode
	publisher  *mockEventPublisher
	voice      *mockVoiceStateProvider
	authorizer *mockAuthorizer
	loader     *mockTrackLoader
	sessions   *session.Registry
	resolver   *TrackResolverService
}

func newFixture() *fixture {
	f := &fixture{
		node:       &mockAudioNode{},
		publisher:  &mockEventPublisher{},
		voice:      &mockVoiceStateProvider{channels: map[snowflake.ID]snowflake.ID{}},
		authorizer: &mockAuthorizer{actors: map[snowflake.ID]domain.Actor{}},
		loader:     &mockTrackLoader{},
	}
	f.sessions = session.NewRegistry(f.node, f.publisher, f.voice, mockGuildSettings{})
	f.resolver = NewTrackResolverService(f.loader, domain.SourceYouTube)
	return f
}

func (f *fixture) connect(names ...string) *session.Session {
	s := f.sessions.Get(testGuild)
	if err := s.Connect(context.Background(), testChannel, nil); err != nil {
		panic(err)
	}
	for _, name := range names {
		if _, err := s.Add(alice, []domain.Track{mockTrack(name)}, nil); err != nil {
			panic(err)
		}
	}
	return s
}
