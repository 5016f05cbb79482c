package session

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

const (
	testGuild   = snowflake.ID(1000)
	testChannel = snowflake.ID(2000)
	alice       = snowflake.ID(1)
	bob         = snowflake.ID(2)
)

func mockTrack(name string) domain.Track {
	return domain.Track{
		Encoded:  "encoded-" + name,
		Title:    name,
		Author:   "Artist",
		Duration: 3 * time.Minute,
	}
}

func titlesOf(tracks []domain.Track) []string {
	result := make([]string, len(tracks))
	for i, track := range tracks {
		result[i] = track.Title
	}
	return result
}

type mockAudioNode struct {
	mu sync.Mutex

	joinErr   error
	leaveErr  error
	switchErr error
	playErr   error
	pauseErr  error
	resumeErr error
	stopErr   error
	seekErr   error
	volumeErr error

	// blockPlay makes Play wait until its context is done.
	blockPlay   bool
	playStarted chan struct{}

	// paused mirrors the player's paused flag. Play clears it.
	paused bool

	joins        []snowflake.ID
	leaves       int
	played       []domain.Track
	pauses       []bool
	resumes      int
	stops        int
	seeks        []time.Duration
	volumes      []int
	events       chan domain.NodeEvent
	unsubscribes int
}

func newMockAudioNode() *mockAudioNode {
	return &mockAudioNode{
		playStarted: make(chan struct{}, 1),
	}
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
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves++
	return m.leaveErr
}

func (m *mockAudioNode) SwitchChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.switchErr != nil {
		return m.switchErr
	}
	m.joins = append(m.joins, channelID)
	return nil
}

func (m *mockAudioNode) Play(ctx context.Context, _ snowflake.ID, track domain.Track) error {
	m.mu.Lock()
	block := m.blockPlay
	m.mu.Unlock()

	if block {
		select {
		case m.playStarted <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, track)
	m.paused = false
	return nil
}

func (m *mockAudioNode) Pause(_ context.Context, _ snowflake.ID, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.pauses = append(m.pauses, paused)
	m.paused = paused
	return nil
}

func (m *mockAudioNode) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumes++
	m.paused = false
	return nil
}

func (m *mockAudioNode) Stop(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stops++
	return nil
}

func (m *mockAudioNode) Seek(_ context.Context, _ snowflake.ID, position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seekErr != nil {
		return m.seekErr
	}
	m.seeks = append(m.seeks, position)
	return nil
}

func (m *mockAudioNode) SetVolume(_ context.Context, _ snowflake.ID, volume int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volumeErr != nil {
		return m.volumeErr
	}
	m.volumes = append(m.volumes, volume)
	return nil
}

func (m *mockAudioNode) Subscribe(_ snowflake.ID) (<-chan domain.NodeEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make(chan domain.NodeEvent, 16)
	m.events = events

	var once sync.Once
	return events, func() {
		once.Do(func() {
			m.mu.Lock()
			m.unsubscribes++
			m.mu.Unlock()
			close(events)
		})
	}
}

func (m *mockAudioNode) send(event domain.NodeEvent) {
	m.mu.Lock()
	events := m.events
	m.mu.Unlock()
	events <- event
}

func (m *mockAudioNode) playedTitles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return titlesOf(m.played)
}

func (m *mockAudioNode) isPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *mockAudioNode) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func (m *mockAudioNode) volumeCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.volumes...)
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) count(eventType reflect.Type) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, event := range m.events {
		if reflect.TypeOf(event) == eventType {
			n++
		}
	}
	return n
}

func (m *mockEventPublisher) last() domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

type mockVoiceStateProvider struct {
	listeners []snowflake.ID
	err       error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(_, _ snowflake.ID) (*snowflake.ID, error) {
	return nil, m.err
}

func (m *mockVoiceStateProvider) Listeners(_, _ snowflake.ID) ([]snowflake.ID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.listeners, nil
}

type mockGuildSettings struct {
	volume int
}

func (m *mockGuildSettings) DefaultVolume(_ snowflake.ID) int {
	return m.volume
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// zeroRand always picks the first candidate.
type zeroRand struct{}

func (zeroRand) IntN(int) int { return 0 }

type fixture struct {
	node      *mockAudioNode
	publisher *mockEventPublisher
	voice     *mockVoiceStateProvider
	settings  *mockGuildSettings
	clock     *fakeClock
	registry  *Registry
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		node:      newMockAudioNode(),
		publisher: &mockEventPublisher{},
		voice:     &mockVoiceStateProvider{},
		settings:  &mockGuildSettings{volume: DefaultVolume},
		clock:     newFakeClock(),
	}
	opts = append([]Option{WithClock(f.clock.Now), WithRand(zeroRand{})}, opts...)
	f.registry = NewRegistry(f.node, f.publisher, f.voice, f.settings, opts...)
	return f
}

func (f *fixture) session() *Session {
	return f.registry.Get(testGuild)
}

func (f *fixture) connected(t *testing.T) *Session {
	t.Helper()

	s := f.session()
	if err := s.Connect(context.Background(), testChannel, nil); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}
	return s
}

func (f *fixture) playing(t *testing.T, names ...string) *Session {
	t.Helper()

	s := f.connected(t)
	tracks := make([]domain.Track, len(names))
	for i, name := range names {
		tracks[i] = mockTrack(name)
	}
	if _, err := s.Add(alice, tracks, nil); err != nil {
		t.Fatalf("unexpected add error: %v", err)
	}
	if err := s.Play(context.Background(), nil); err != nil {
		t.Fatalf("unexpected play error: %v", err)
	}
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
