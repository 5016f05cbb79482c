package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// pendingVoiceConnection tracks the state of a pending voice connection.
// Moving between channels of a guild may keep the voice server, so a move
// only waits for the voice state.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	channelID      snowflake.ID
	needServer     bool
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

func newPendingVoiceConnection(channelID snowflake.ID, needServer bool) *pendingVoiceConnection {
	return &pendingVoiceConnection{
		channelID:  channelID,
		needServer: needServer,
		ready:      make(chan struct{}),
	}
}

// onVoiceState marks the voice state as received if it reports the awaited channel.
func (p *pendingVoiceConnection) onVoiceState(channelID *snowflake.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if channelID == nil || *channelID != p.channelID {
		return
	}
	p.hasVoiceState = true
	p.signalLocked()
}

// onVoiceServer marks the voice server as received.
func (p *pendingVoiceConnection) onVoiceServer() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hasVoiceServer = true
	p.signalLocked()
}

func (p *pendingVoiceConnection) signalLocked() {
	if p.hasVoiceState && (p.hasVoiceServer || !p.needServer) {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer buffers voice events to ensure both VoiceStateUpdate and
// VoiceServerUpdate are received before forwarding to Lavalink.
// This prevents "Partial Lavalink voice state" errors when events arrive out of order.
type voiceEventBuffer struct {
	mu sync.Mutex

	// From VoiceStateUpdate
	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	// From VoiceServerUpdate
	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// getData returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) getData() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID = b.channelID
	sessionID = b.sessionID
	token = b.token
	endpoint = b.endpoint

	// Reset buffer
	b.hasVoiceState = false
	b.hasVoiceServer = false
	b.channelID = nil
	b.sessionID = ""
	b.token = ""
	b.endpoint = ""

	return
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	NodeName string
	Address  string
	Password string
	Secure   bool
}

// LavalinkAdapter wraps DisGoLink to implement the AudioNode and TrackLoader ports.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	// voiceBuffers holds buffered voice events per guild to handle out-of-order events
	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer
	established   map[snowflake.ID]bool // guilds whose voice session was forwarded

	events *nodeEventHub
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		established:  make(map[snowflake.ID]bool),
		events:       newNodeEventHub(),
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onPlayerUpdate),
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     config.NodeName,
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		link.Close()
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close disconnects from every node and closes all event subscriptions.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
	c.events.closeAll()
}

// Join connects to a voice channel.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) Join(ctx context.Context, guildID, channelID snowflake.ID) error {
	return c.updateVoiceChannel(ctx, guildID, channelID, true)
}

// SwitchChannel moves the voice connection to another channel of the guild.
// It waits for the VoiceStateUpdate reporting the new channel.
func (c *LavalinkAdapter) SwitchChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	return c.updateVoiceChannel(ctx, guildID, channelID, false)
}

func (c *LavalinkAdapter) updateVoiceChannel(
	ctx context.Context,
	guildID, channelID snowflake.ID,
	needServer bool,
) error {
	pending := newPendingVoiceConnection(channelID, needServer)

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		if c.pending[guildID] == pending {
			delete(c.pending, guildID)
		}
		c.pendingMu.Unlock()
	}()

	// Self-deafened: the bot never listens.
	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	timer := time.NewTimer(voiceConnectionTimeout)
	defer timer.Stop()

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-timer.C:
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// Leave destroys the player and disconnects from the voice channel.
func (c *LavalinkAdapter) Leave(ctx context.Context, guildID snowflake.ID) error {
	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, true)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// Play plays a track unpaused, replacing the current one.
func (c *LavalinkAdapter) Play(ctx context.Context, guildID snowflake.ID, track domain.Track) error {
	if err := c.link.Player(guildID).Update(ctx, playOptions(track)...); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return nil
}

// playOptions builds the player update for starting a track.
// Lavalink keeps the paused flag across track changes, so it is cleared here.
func playOptions(track domain.Track) []lavalink.PlayerUpdateOpt {
	return []lavalink.PlayerUpdateOpt{
		// Use WithEncodedTrack to avoid userData:null issue
		lavalink.WithEncodedTrack(track.Encoded),
		lavalink.WithPaused(false),
	}
}

// Stop unloads the current track.
func (c *LavalinkAdapter) Stop(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// Pause pauses or unpauses the current playback.
func (c *LavalinkAdapter) Pause(ctx context.Context, guildID snowflake.ID, paused bool) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithPaused(paused)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return nil
}

// Resume resumes the current playback.
func (c *LavalinkAdapter) Resume(ctx context.Context, guildID snowflake.ID) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return nil
}

// Seek moves the playback position of the current track.
func (c *LavalinkAdapter) Seek(ctx context.Context, guildID snowflake.ID, position time.Duration) error {
	err := c.link.Player(guildID).Update(ctx, lavalink.WithPosition(lavalink.Duration(position.Milliseconds())))
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// SetVolume sets the player volume in percent.
func (c *LavalinkAdapter) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	if err := c.link.Player(guildID).Update(ctx, lavalink.WithVolume(volume)); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// Subscribe returns the node events of the guild's player.
func (c *LavalinkAdapter) Subscribe(guildID snowflake.ID) (<-chan domain.NodeEvent, func()) {
	return c.events.subscribe(guildID)
}

// LoadTracks loads tracks from Lavalink.
func (c *LavalinkAdapter) LoadTracks(ctx context.Context, query string) (*ports.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	return convertLoadResult(result), nil
}

// convertLoadResult converts Lavalink result to ports result.
func convertLoadResult(result *lavalink.LoadResult) *ports.LoadResult {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.LoadResult{
			Type:   ports.LoadTypeTrack,
			Tracks: []domain.Track{convertTrack(data)},
		}

	case lavalink.Playlist:
		return &ports.LoadResult{
			Type:         ports.LoadTypePlaylist,
			Tracks:       convertTracks(data.Tracks),
			PlaylistName: data.Info.Name,
		}

	case lavalink.Search:
		return &ports.LoadResult{
			Type:   ports.LoadTypeSearch,
			Tracks: convertTracks(data),
		}

	case lavalink.Exception:
		return &ports.LoadResult{
			Type:         ports.LoadTypeError,
			ErrorMessage: data.Message,
		}

	default:
		return &ports.LoadResult{
			Type: ports.LoadTypeEmpty,
		}
	}
}

func convertTracks(tracks []lavalink.Track) []domain.Track {
	converted := make([]domain.Track, len(tracks))
	for i, track := range tracks {
		converted[i] = convertTrack(track)
	}
	return converted
}

// convertTrack converts a Lavalink track to a domain track.
func convertTrack(track lavalink.Track) domain.Track {
	info := track.Info

	return domain.Track{
		Encoded:    track.Encoded,
		Identifier: info.Identifier,
		Title:      info.Title,
		Author:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		URI:        stringValue(info.URI),
		ArtworkURL: stringValue(info.ArtworkURL),
		SourceName: info.SourceName,
		IsStream:   info.IsStream,
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	if c.isEstablished(guildID) {
		c.link.OnVoiceServerUpdate(context.Background(), guildID, event.Token, event.Endpoint)
	} else if buffer := c.getOrCreateVoiceBuffer(guildID); buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	if pending := c.pendingFor(guildID); pending != nil {
		pending.onVoiceServer()
	}
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	// Only handle updates for the bot itself
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	sessionID := event.SessionID

	// Parse the channel ID - if empty, the bot is disconnecting
	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	switch {
	case channelID == nil:
		// Handle disconnect immediately (no need to wait for VoiceServerUpdate)
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, sessionID)
		c.clearVoiceBuffer(guildID)
	case c.isEstablished(guildID):
		c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	default:
		if buffer := c.getOrCreateVoiceBuffer(guildID); buffer.setVoiceState(channelID, sessionID) {
			c.forwardBufferedVoiceEvents(guildID, buffer)
		}
	}

	if pending := c.pendingFor(guildID); pending != nil {
		pending.onVoiceState(channelID)
	}
}

func (c *LavalinkAdapter) pendingFor(guildID snowflake.ID) *pendingVoiceConnection {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return c.pending[guildID]
}

func (c *LavalinkAdapter) isEstablished(guildID snowflake.ID) bool {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	return c.established[guildID]
}

// getOrCreateVoiceBuffer returns the voice buffer for a guild, creating one if needed.
func (c *LavalinkAdapter) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

// clearVoiceBuffer removes the voice buffer for a guild.
func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
	delete(c.established, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink.
func (c *LavalinkAdapter) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.getData()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	// Forward to Lavalink in the correct order
	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)

	c.voiceBufferMu.Lock()
	c.established[guildID] = true
	c.voiceBufferMu.Unlock()
}

func (c *LavalinkAdapter) onPlayerUpdate(player disgolink.Player, event lavalink.PlayerUpdateMessage) {
	c.events.emit(player.GuildID(), convertPlayerState(event.State, time.Now()))
}

// convertPlayerState stamps the reported position with the node's own clock.
// received is used when the node sent no timestamp.
func convertPlayerState(state lavalink.PlayerState, received time.Time) domain.NodePlayerUpdate {
	at := state.Time.Time
	if at.IsZero() {
		at = received
	}
	return domain.NodePlayerUpdate{
		Position: time.Duration(state.Position) * time.Millisecond,
		At:       at,
	}
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)

	c.events.emit(player.GuildID(), domain.NodeTrackStart{Encoded: event.Track.Encoded})
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	c.events.emit(player.GuildID(), domain.NodeTrackEnd{
		Encoded: event.Track.Encoded,
		Reason:  convertEndReason(event.Reason),
	})
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)

	c.events.emit(player.GuildID(), domain.NodeTrackError{
		Encoded:  event.Track.Encoded,
		Message:  event.Exception.Message,
		Severity: string(event.Exception.Severity),
	})
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)

	threshold := time.Duration(event.Threshold) * time.Millisecond
	c.events.emit(player.GuildID(), domain.NodeTrackError{
		Encoded:  event.Track.Encoded,
		Message:  fmt.Sprintf("track got stuck for %s", threshold),
		Severity: "suspicious",
	})
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.AudioNode   = (*LavalinkAdapter)(nil)
	_ ports.TrackLoader = (*LavalinkAdapter)(nil)
)
