package music_player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/session"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/presentation/discord"
)

// Timeouts for connecting to and leaving the audio node.
const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.Module             = (*MusicPlayerModule)(nil)
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	autocomplete    *discord.AutocompleteHandler
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter

	sessions            *session.Registry
	eventBus            *infrastructure.ChannelEventBus
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"join":       m.commandHandlers.HandleJoin,
		"leave":      m.commandHandlers.HandleLeave,
		"play":       m.commandHandlers.HandlePlay,
		"pause":      m.commandHandlers.HandlePause,
		"resume":     m.commandHandlers.HandleResume,
		"skip":       m.commandHandlers.HandleSkip,
		"seek":       m.commandHandlers.HandleSeek,
		"volume":     m.commandHandlers.HandleVolume,
		"replay":     m.commandHandlers.HandleReplay,
		"nowplaying": m.commandHandlers.HandleNowPlaying,
		"queue":      m.commandHandlers.HandleQueue,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleInteractionCreate(s, i)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player requires a Discord session")
	}
	if m.config == nil {
		return errors.New("music_player config not loaded")
	}

	guildVolumes, err := m.config.GuildVolumes()
	if err != nil {
		return err
	}
	djRoles, err := m.config.DJRoles()
	if err != nil {
		return err
	}
	prunePolicy, err := session.ParsePrunePolicy(m.config.PrunePolicy)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(ctx, deps.Session, infrastructure.LavalinkConfig{
		NodeName: m.config.LavalinkNodeName,
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
		Secure:   m.config.LavalinkSecure,
	})
	if err != nil {
		return err
	}
	m.lavalinkAdapter = lavalinkAdapter

	m.eventBus = infrastructure.NewChannelEventBus(m.config.EventBufferSize)

	// Create infrastructure
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session.State)
	guildSettings := infrastructure.NewStaticGuildSettings(m.config.DefaultVolume, guildVolumes)
	authorizer := infrastructure.NewDiscordAuthorizer(deps.Session, djRoles)
	memberInfo := infrastructure.NewDiscordMemberInfoProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)

	m.sessions = session.NewRegistry(
		lavalinkAdapter,
		m.eventBus,
		voiceState,
		guildSettings,
		session.WithCommandTimeout(m.config.CommandTimeout),
		session.WithPrunePolicy(prunePolicy),
	)

	// Create services
	resolver := usecases.NewTrackResolverService(
		lavalinkAdapter,
		domain.ParseSearchSource(m.config.SearchSource),
	)
	voiceChannel := usecases.NewVoiceChannelService(m.sessions, voiceState)
	playback := usecases.NewPlaybackService(m.sessions, resolver)
	queue := usecases.NewQueueService(m.sessions, authorizer)
	autocomplete := usecases.NewAutocompleteService(m.sessions, resolver)

	// Register application event handlers
	m.notificationHandler = application.NewNotificationEventHandler(m.eventBus, notifier, memberInfo)
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	// Create presentation handlers
	botID, err := snowflake.Parse(deps.Session.State.User.ID)
	if err != nil {
		return err
	}
	m.commandHandlers = discord.NewCommandHandlers(voiceChannel, playback, queue)
	m.autocomplete = discord.NewAutocompleteHandler(autocomplete)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel)

	slog.Info("music_player module initialized with Lavalink", "node", m.config.LavalinkNodeName)

	return nil
}

// Shutdown leaves every voice channel, then stops event delivery and closes
// the Lavalink connection.
func (m *MusicPlayerModule) Shutdown() error {
	var err error

	if m.sessions != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = m.sessions.Close(ctx)
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return err
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}

func (m *MusicPlayerModule) handleInteractionCreate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete || m.autocomplete == nil {
		return
	}

	data := i.ApplicationCommandData()

	switch data.Name {
	case "play":
		m.autocomplete.HandlePlay(s, i)
	case "queue":
		if len(data.Options) > 0 {
			switch data.Options[0].Name {
			case "remove", "promote":
				m.autocomplete.HandleQueuePosition(s, i)
			}
		}
	}
}
