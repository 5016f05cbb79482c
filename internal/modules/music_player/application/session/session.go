package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

const (
	// MinVolume is the lowest accepted volume.
	MinVolume = 1
	// MaxVolume is the highest accepted volume.
	MaxVolume = 200
	// DefaultVolume is used when no guild setting applies.
	DefaultVolume = 100
)

// Session is the playback session of one guild.
// All mutations, node round-trips and node event handling are serialized by mu.
type Session struct {
	guildID   snowflake.ID
	node      ports.AudioNode
	publisher ports.EventPublisher
	voice     ports.VoiceStateProvider
	settings  ports.GuildSettings
	release   func(*Session)
	opts      options

	mu             sync.Mutex
	queue          domain.Queue
	current        *domain.Track
	state          domain.PlaybackState
	volume         int
	replay         bool
	systemPaused   bool
	position       time.Duration
	lastUpdate     time.Time
	audioChannelID *snowflake.ID
	unsubscribe    func()
	generation     uint64
	released       bool

	// connMu guards the connection context separately so Leave can cancel
	// in-flight node calls without waiting for mu.
	connMu     sync.Mutex
	connCtx    context.Context
	connCancel context.CancelFunc
}

// New creates a detached, idle Session. Sessions are normally obtained from a Registry.
func New(
	guildID snowflake.ID,
	node ports.AudioNode,
	publisher ports.EventPublisher,
	voice ports.VoiceStateProvider,
	settings ports.GuildSettings,
	opts ...Option,
) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		guildID:   guildID,
		node:      node,
		publisher: publisher,
		voice:     voice,
		settings:  settings,
		opts:      o,
		queue:     domain.NewQueue(),
		state:     domain.StateIdle,
	}
	s.volume = s.defaultVolume()

	return s
}

// GuildID returns the guild this session belongs to.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// Snapshot returns a read-only projection of the session.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Position returns the derived playback position of the current track.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.positionLocked()
}

// SystemPaused returns true if playback was paused automatically rather than by a user.
func (s *Session) SystemPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == domain.StatePaused && s.systemPaused
}

// ManageableFor reports whether the actor may manage the whole queue.
// It only reads state.
func (s *Session) ManageableFor(actor domain.Actor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.manageableLocked(actor)
}

// Connect joins the voice channel and starts consuming node events.
// It does not start playback.
func (s *Session) Connect(ctx context.Context, channelID snowflake.ID, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.audioChannelID != nil {
		return domain.ErrAlreadyConnected
	}

	s.openConnection()

	previous := s.state
	if previous == domain.StateIdle {
		s.state = domain.StateConnecting
	}

	err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Join(ctx, s.guildID, channelID)
	})
	s.state = previous
	if err != nil {
		s.closeConnection()
		return err
	}

	s.audioChannelID = &channelID
	s.generation++
	events, unsubscribe := s.node.Subscribe(s.guildID)
	s.unsubscribe = unsubscribe
	go s.reconcile(s.generation, events)

	volume := s.volume
	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.SetVolume(ctx, s.guildID, volume)
	}); err != nil {
		slog.Warn(
			"failed to push volume after connecting",
			"guild", s.guildID,
			"volume", volume,
			"error", err,
		)
	}

	slog.Info("connected to voice channel", "guild", s.guildID, "channel", channelID)

	s.publish(domain.ConnectedEvent{
		EventHeader: s.header(rc),
		ChannelID:   channelID,
	})

	return nil
}

// Switch moves the voice connection to another channel, keeping queue and playback.
func (s *Session) Switch(ctx context.Context, channelID snowflake.ID, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.audioChannelID == nil {
		return domain.ErrNotConnected
	}

	previous := *s.audioChannelID
	if previous == channelID {
		return nil
	}

	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.SwitchChannel(ctx, s.guildID, channelID)
	}); err != nil {
		return err
	}

	s.audioChannelID = &channelID

	slog.Info(
		"switched voice channel",
		"guild", s.guildID,
		"from", previous,
		"to", channelID,
	)

	s.publish(domain.SwitchedEvent{
		EventHeader:       s.header(rc),
		PreviousChannelID: previous,
		ChannelID:         channelID,
	})

	return nil
}

// Leave disconnects from voice and resets playback. It is safe to call repeatedly.
// Node calls in flight on this session are abandoned. The session is released
// from its registry when nothing is left in the queue.
func (s *Session) Leave(ctx context.Context, rc *domain.RequestContext) error {
	s.cancelConnection()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}

	channel := s.audioChannelID

	var leaveErr error
	if channel != nil {
		leaveCtx, cancel := context.WithTimeout(ctx, s.opts.commandTimeout)
		if err := s.node.Leave(leaveCtx, s.guildID); err != nil {
			slog.Warn("failed to leave voice channel", "guild", s.guildID, "error", err)
			leaveErr = fmt.Errorf("%w: %w", domain.ErrNodeUnavailable, err)
		}
		cancel()
	}

	s.closeConnection()
	s.generation++
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	s.resetLocked(false)
	s.audioChannelID = nil

	if channel != nil {
		slog.Info("left voice channel", "guild", s.guildID, "channel", *channel)

		s.publish(domain.LeftEvent{
			EventHeader: s.header(rc),
			ChannelID:   channel,
		})
	}

	if s.queue.IsEmpty() {
		s.released = true
		if s.release != nil {
			s.release(s)
		}
	}

	return leaveErr
}

// Play starts the next queued track. When paused, the paused track is replaced.
func (s *Session) Play(ctx context.Context, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.audioChannelID == nil {
		return domain.ErrNotConnected
	}
	if s.queue.IsEmpty() {
		return domain.ErrEmptyQueue
	}
	if s.state == domain.StatePlaying {
		return domain.ErrAlreadyPlaying
	}

	track, _ := s.queue.PopFront()
	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Play(ctx, s.guildID, track)
	}); err != nil {
		s.queue.PushFront(track)
		return err
	}

	s.startLocked(track)

	slog.Debug("started playback", "guild", s.guildID, "track", track.Title)

	s.publish(domain.PlaybackStartedEvent{
		EventHeader: s.header(rc),
		Track:       track,
	})

	return nil
}

// Pause pauses playback. systemPaused marks an automatic pause, for example
// when every listener left the channel.
func (s *Session) Pause(ctx context.Context, systemPaused bool, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.current == nil {
		return domain.ErrNotPlaying
	}
	if s.state == domain.StatePaused {
		// A user pause on top of an automatic one must not be undone automatically.
		if !systemPaused {
			s.systemPaused = false
		}
		return nil
	}

	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Pause(ctx, s.guildID, true)
	}); err != nil {
		return err
	}

	s.position = s.positionLocked()
	s.lastUpdate = s.opts.now()
	s.state = domain.StatePaused
	s.systemPaused = systemPaused

	s.publish(domain.PausedEvent{
		EventHeader:  s.header(rc),
		SystemPaused: systemPaused,
	})

	return nil
}

// Resume resumes paused playback.
func (s *Session) Resume(ctx context.Context, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.current == nil {
		return domain.ErrNotPlaying
	}
	if s.state == domain.StatePlaying {
		return nil
	}

	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Resume(ctx, s.guildID)
	}); err != nil {
		return err
	}

	s.lastUpdate = s.opts.now()
	s.state = domain.StatePlaying
	s.systemPaused = false

	s.publish(domain.ResumedEvent{
		EventHeader: s.header(rc),
	})

	return nil
}

// Skip stops the current track. The queue advances when the node reports the end.
// Without a current track this is a no-op.
func (s *Session) Skip(ctx context.Context, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.current == nil {
		return nil
	}

	skipped := *s.current
	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Stop(ctx, s.guildID)
	}); err != nil {
		return err
	}

	s.publish(domain.SkippedEvent{
		EventHeader: s.header(rc),
		Track:       skipped,
	})

	return nil
}

// Seek moves the playback position inside the current track.
func (s *Session) Seek(ctx context.Context, position time.Duration, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.audioChannelID == nil {
		return domain.ErrNotConnected
	}
	if s.current == nil {
		return domain.ErrNotPlaying
	}
	if position < 0 || !s.current.IsSeekable() || position > s.current.Duration {
		return domain.ErrSeekOutOfRange
	}

	if err := s.dispatch(ctx, func(ctx context.Context) error {
		return s.node.Seek(ctx, s.guildID, position)
	}); err != nil {
		return err
	}

	s.position = position
	s.lastUpdate = s.opts.now()

	s.publish(domain.SeekUpdatedEvent{
		EventHeader: s.header(rc),
		Position:    position,
	})

	return nil
}

// ValidateVolume checks that volume lies within MinVolume and MaxVolume.
func ValidateVolume(volume int) error {
	if volume < MinVolume {
		return domain.ErrSilentVolume
	}
	if volume > MaxVolume {
		return domain.ErrLoudVolume
	}
	return nil
}

// SetVolume changes the volume. While detached only the stored value changes;
// it is pushed to the node on the next Connect.
func (s *Session) SetVolume(ctx context.Context, volume int, rc *domain.RequestContext) error {
	if err := ValidateVolume(volume); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}

	if s.audioChannelID != nil {
		if err := s.dispatch(ctx, func(ctx context.Context) error {
			return s.node.SetVolume(ctx, s.guildID, volume)
		}); err != nil {
			return err
		}
	}

	previous := s.volume
	s.volume = volume

	s.publish(domain.VolumeUpdatedEvent{
		EventHeader: s.header(rc),
		Previous:    previous,
		Volume:      volume,
	})

	return nil
}

// SetReplay sets whether finished tracks are appended back to the queue.
func (s *Session) SetReplay(replay bool, rc *domain.RequestContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return domain.ErrSessionReleased
	}
	if s.replay == replay {
		return nil
	}

	s.replay = replay

	s.publish(domain.ReplayUpdatedEvent{
		EventHeader: s.header(rc),
		Replay:      replay,
	})

	return nil
}

// Reset clears playback state but keeps the queue. With restoreVolume the
// volume returns to the guild's default.
func (s *Session) Reset(restoreVolume bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked(restoreVolume)
}

func (s *Session) resetLocked(restoreVolume bool) {
	s.current = nil
	s.position = 0
	s.lastUpdate = time.Time{}
	s.systemPaused = false
	s.replay = false
	if s.state.HasTrack() {
		s.state = domain.StateIdle
	}
	if restoreVolume {
		s.volume = s.defaultVolume()
	}
}

func (s *Session) startLocked(track domain.Track) {
	s.current = &track
	s.state = domain.StatePlaying
	s.systemPaused = false
	s.position = 0
	s.lastUpdate = s.opts.now()
}

func (s *Session) defaultVolume() int {
	volume := DefaultVolume
	if s.settings != nil {
		volume = s.settings.DefaultVolume(s.guildID)
	}
	return min(max(volume, MinVolume), MaxVolume)
}

func (s *Session) positionLocked() time.Duration {
	if s.lastUpdate.IsZero() {
		return 0
	}
	if s.state != domain.StatePlaying {
		return s.position
	}

	position := s.position + s.opts.now().Sub(s.lastUpdate)
	if s.current != nil && s.current.IsSeekable() {
		position = min(position, s.current.Duration)
	}
	return position
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snapshot := domain.Snapshot{
		GuildID:  s.guildID,
		State:    s.state,
		Queue:    s.queue.List(),
		Volume:   s.volume,
		Replay:   s.replay,
		Position: s.positionLocked(),
	}
	if s.current != nil {
		current := *s.current
		snapshot.Current = &current
	}
	if s.audioChannelID != nil {
		channel := *s.audioChannelID
		snapshot.AudioChannelID = &channel
	}
	return snapshot
}

func (s *Session) manageableLocked(actor domain.Actor) bool {
	return domain.ManageableFor(actor, s.listenersLocked(), s.current, s.queue.List())
}

func (s *Session) listenersLocked() []snowflake.ID {
	if s.audioChannelID == nil || s.voice == nil {
		return nil
	}

	listeners, err := s.voice.Listeners(s.guildID, *s.audioChannelID)
	if err != nil {
		slog.Warn("failed to get voice channel listeners", "guild", s.guildID, "error", err)
		return nil
	}
	return listeners
}

func (s *Session) header(rc *domain.RequestContext) domain.EventHeader {
	return domain.NewEventHeader(s.snapshotLocked(), rc, s.opts.now())
}

func (s *Session) publish(event domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		slog.Warn(
			"failed to publish event",
			"guild", s.guildID,
			"type", fmt.Sprintf("%T", event),
			"error", err,
		)
	}
}
