package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/bot"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorInfo    = 0x5865F2
)

var (
	errInvalidInteraction = errors.New("invalid interaction")
	errInvalidPosition    = errors.New("invalid position")
)

// errorMessages maps known errors to the text shown to users.
var errorMessages = []struct {
	err     error
	message string
}{
	{usecases.ErrUserNotInVoice, "You must be in a voice channel."},
	{usecases.ErrNotConnected, "I'm not connected to a voice channel."},
	{usecases.ErrNotPlaying, "Nothing is currently playing."},
	{usecases.ErrAlreadyPlaying, "Already playing."},
	{usecases.ErrEmptyQueue, "The queue is empty."},
	{usecases.ErrIndexOutOfRange, "There is no track at that position."},
	{usecases.ErrSeekOutOfRange, "That position is outside of the current track."},
	{usecases.ErrSilentVolume, "Volume must be at least 1%."},
	{usecases.ErrLoudVolume, "Volume must not exceed 200%."},
	{usecases.ErrPermissionDenied, "You don't have permission to do that."},
	{usecases.ErrNoMatches, "No tracks found."},
	{usecases.ErrLoadFailed, "Failed to load tracks."},
	{usecases.ErrNodeUnavailable, "The audio server is not responding. Please try again later."},
}

// request identifies who issued a command and where.
type request struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	voiceChannel *usecases.VoiceChannelService
	playback     *usecases.PlaybackService
	queue        *usecases.QueueService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel: voiceChannel,
		playback:     playback,
		queue:        queue,
	}
}

// HandleJoin handles the /join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			voiceChannelID, err = snowflake.Parse(opt.ChannelValue(s).ID)
			if err != nil {
				return respondError(r, "Invalid voice channel")
			}
		}
	}

	output, err := h.voiceChannel.Join(context.Background(), usecases.JoinInput{
		GuildID:               req.guildID,
		UserID:                req.userID,
		NotificationChannelID: req.channelID,
		VoiceChannelID:        voiceChannelID,
	})
	if err != nil {
		return respondFailure(r, err)
	}

	if output.Switched {
		return respondSuccess(r, fmt.Sprintf("Moved to <#%d>.", output.VoiceChannelID))
	}
	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", output.VoiceChannelID))
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	if err := h.voiceChannel.Leave(context.Background(), usecases.LeaveInput{
		GuildID:               req.guildID,
		UserID:                req.userID,
		NotificationChannelID: req.channelID,
	}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Disconnected.")
}

// HandlePlay handles the /play command.
// The bot joins the user's voice channel first if it is not connected yet.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	if _, err := h.playback.NowPlaying(req.guildID); errors.Is(err, usecases.ErrNotConnected) {
		if _, err := h.voiceChannel.Join(ctx, usecases.JoinInput{
			GuildID:               req.guildID,
			UserID:                req.userID,
			NotificationChannelID: req.channelID,
		}); err != nil {
			return respondFailure(r, err)
		}
	}

	output, err := h.playback.Play(ctx, usecases.PlayInput{
		GuildID:               req.guildID,
		UserID:                req.userID,
		NotificationChannelID: req.channelID,
		Query:                 query,
	})
	if err != nil {
		return respondFailure(r, err)
	}

	// The queue notification announces added tracks publicly.
	return respondEphemeral(r, playDescription(output))
}

func playDescription(output *usecases.PlayOutput) string {
	switch {
	case output.PlaylistName != "" && len(output.Added) > 0:
		return fmt.Sprintf(
			"Queued **%d tracks** from playlist **%s**.",
			len(output.Added),
			output.PlaylistName,
		)
	case len(output.Added) == 1 && output.Started:
		return fmt.Sprintf("Playing %s.", trackLink(output.Added[0]))
	case len(output.Added) == 1:
		return fmt.Sprintf("Queued %s.", trackLink(output.Added[0]))
	case len(output.Added) > 1:
		return fmt.Sprintf("Queued **%d tracks**.", len(output.Added))
	case output.Started:
		return "Started playback."
	default:
		return "Already playing."
	}
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	if err := h.playback.Pause(context.Background(), req.playbackInput()); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	if err := h.playback.Resume(context.Background(), req.playbackInput()); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	output, err := h.playback.Skip(context.Background(), req.playbackInput())
	if err != nil {
		return respondFailure(r, err)
	}

	if output.SkippedTrack == nil {
		return respondSuccess(r, "Nothing to skip.")
	}
	return respondSuccess(r, fmt.Sprintf("Skipped %s.", trackLink(*output.SkippedTrack)))
}

// HandleSeek handles the /seek command.
func (h *CommandHandlers) HandleSeek(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	var raw string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" {
			raw = opt.StringValue()
		}
	}

	position, err := parsePosition(raw)
	if err != nil {
		return respondError(r, "Invalid position. Use seconds or mm:ss.")
	}

	if err := h.playback.Seek(context.Background(), usecases.SeekInput{
		PlaybackInput: req.playbackInput(),
		Position:      position,
	}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Jumped to %s.", usecases.FormatDuration(position)))
}

// HandleVolume handles the /volume command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	var volume int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "percent" {
			volume = int(opt.IntValue())
		}
	}

	if err := h.playback.SetVolume(context.Background(), usecases.SetVolumeInput{
		PlaybackInput: req.playbackInput(),
		Volume:        volume,
	}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Volume set to **%d%%**.", volume))
}

// HandleReplay handles the /replay command.
func (h *CommandHandlers) HandleReplay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	var replay bool
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "enabled" {
			replay = opt.BoolValue()
		}
	}

	if err := h.playback.SetReplay(context.Background(), usecases.SetReplayInput{
		PlaybackInput: req.playbackInput(),
		Replay:        replay,
	}); err != nil {
		return respondFailure(r, err)
	}

	if replay {
		return respondSuccess(r, "Finished tracks will be re-queued.")
	}
	return respondSuccess(r, "Finished tracks will no longer be re-queued.")
}

// HandleNowPlaying handles the /nowplaying command.
func (h *CommandHandlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	snapshot, err := h.playback.NowPlaying(req.guildID)
	if err != nil {
		return respondFailure(r, err)
	}
	if snapshot.Current == nil {
		return respondFailure(r, usecases.ErrNotPlaying)
	}

	return respondEmbed(r, nowPlayingEmbed(snapshot))
}

func nowPlayingEmbed(snapshot *usecases.Snapshot) *discordgo.MessageEmbed {
	track := snapshot.Current

	progress := "LIVE"
	if !track.IsStream {
		progress = fmt.Sprintf(
			"%s / %s",
			usecases.FormatDuration(snapshot.Position),
			track.FormattedDuration(),
		)
	}
	if snapshot.State == usecases.StatePaused {
		progress += " (paused)"
	}

	replay := "Off"
	if snapshot.Replay {
		replay = "On"
	}

	return &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Title:  track.Title,
		URL:    track.URI,
		Color:  track.Source().Color(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: track.Author, Inline: true},
			{Name: "Progress", Value: progress, Inline: true},
			{Name: "Requested by", Value: fmt.Sprintf("<@%d>", track.RequesterID), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", snapshot.Volume), Inline: true},
			{Name: "Replay", Value: replay, Inline: true},
			{Name: "Up Next", Value: strconv.Itoa(len(snapshot.Queue)), Inline: true},
		},
	}
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	req, err := parseRequest(i)
	if err != nil {
		return respondError(r, "Invalid request")
	}

	subCmd := options[0]
	switch subCmd.Name {
	case "list":
		return h.handleQueueList(req, r, subCmd.Options)
	case "remove":
		return h.handleQueueRemove(req, r, subCmd.Options)
	case "promote":
		return h.handleQueuePromote(req, r, subCmd.Options)
	case "shuffle":
		return h.handleQueueShuffle(req, r)
	case "prune":
		return h.handleQueuePrune(req, r)
	case "clear":
		return h.handleQueueClear(req, r)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *CommandHandlers) handleQueueList(
	req request,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	page := 1
	for _, opt := range options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.queue.List(usecases.QueueListInput{
		GuildID: req.guildID,
		Page:    page,
	})
	if err != nil {
		return respondFailure(r, err)
	}

	return respondEmbed(r, queueEmbed(output))
}

func queueEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	snapshot := output.Snapshot

	title := "Queue"
	if snapshot.Replay {
		title = "Queue \U0001F501" // 🔁
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: colorInfo,
	}

	if snapshot.Current == nil && output.TotalTracks == 0 {
		embed.Description = "Queue is empty."
		return embed
	}

	var sb strings.Builder
	if snapshot.Current != nil {
		sb.WriteString("### Now Playing\n")
		writeTrackLine(&sb, 0, *snapshot.Current)
	}
	if len(output.Tracks) > 0 {
		sb.WriteString("### Up Next\n")
		for idx, track := range output.Tracks {
			writeTrackLine(&sb, output.Offset+idx+1, track)
		}
	}

	embed.Description = sb.String()
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf(
			"Page %d/%d · %d tracks · %s remaining",
			output.CurrentPage,
			output.TotalPages,
			output.TotalTracks,
			usecases.FormatDuration(snapshot.Remaining()),
		),
	}
	return embed
}

func (h *CommandHandlers) handleQueueRemove(
	req request,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	output, err := h.queue.Remove(context.Background(), usecases.QueuePositionInput{
		QueueInput: req.queueInput(),
		Position:   positionOf(options),
	})
	if err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Removed %s.", trackLink(output.Track)))
}

func (h *CommandHandlers) handleQueuePromote(
	req request,
	r bot.Responder,
	options []*discordgo.ApplicationCommandInteractionDataOption,
) error {
	output, err := h.queue.Promote(context.Background(), usecases.QueuePositionInput{
		QueueInput: req.queueInput(),
		Position:   positionOf(options),
	})
	if err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("%s will play next.", trackLink(output.Track)))
}

func (h *CommandHandlers) handleQueueShuffle(req request, r bot.Responder) error {
	if err := h.queue.Shuffle(context.Background(), req.queueInput()); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Shuffled the queue.")
}

func (h *CommandHandlers) handleQueuePrune(req request, r bot.Responder) error {
	output, err := h.queue.Prune(context.Background(), req.queueInput())
	if err != nil {
		return respondFailure(r, err)
	}

	if len(output.Removed) == 0 {
		return respondSuccess(r, "Nothing to prune.")
	}
	return respondSuccess(r, fmt.Sprintf("Pruned **%d** tracks.", len(output.Removed)))
}

func (h *CommandHandlers) handleQueueClear(req request, r bot.Responder) error {
	output, err := h.queue.Clear(context.Background(), req.queueInput())
	if err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Cleared **%d** tracks from the queue.", len(output.Removed)))
}

// Request parsing.

func parseRequest(i *discordgo.InteractionCreate) (request, error) {
	if i.Member == nil || i.Member.User == nil {
		return request{}, fmt.Errorf("%w: missing member", errInvalidInteraction)
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return request{}, fmt.Errorf("%w: guild: %w", errInvalidInteraction, err)
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return request{}, fmt.Errorf("%w: user: %w", errInvalidInteraction, err)
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return request{}, fmt.Errorf("%w: channel: %w", errInvalidInteraction, err)
	}

	return request{guildID: guildID, userID: userID, channelID: channelID}, nil
}

func (req request) playbackInput() usecases.PlaybackInput {
	return usecases.PlaybackInput{
		GuildID:               req.guildID,
		UserID:                req.userID,
		NotificationChannelID: req.channelID,
	}
}

func (req request) queueInput() usecases.QueueInput {
	return usecases.QueueInput{
		GuildID:               req.guildID,
		UserID:                req.userID,
		NotificationChannelID: req.channelID,
	}
}

func positionOf(options []*discordgo.ApplicationCommandInteractionDataOption) int {
	for _, opt := range options {
		if opt.Name == "position" {
			return int(opt.IntValue())
		}
	}
	return 0
}

// parsePosition parses "90", "1:30" or "1:02:30" into a duration.
func parsePosition(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) > 3 {
		return 0, errInvalidPosition
	}

	var seconds int
	for idx, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errInvalidPosition
		}
		if idx > 0 && n >= 60 {
			return 0, errInvalidPosition
		}
		seconds = seconds*60 + n
	}

	return time.Duration(seconds) * time.Second, nil
}

// Response helpers.

// errorMessage returns the user-facing text for err and whether err is expected.
func errorMessage(err error) (string, bool) {
	for _, known := range errorMessages {
		if errors.Is(err, known.err) {
			return known.message, true
		}
	}
	return "Something went wrong.", false
}

func respondFailure(r bot.Responder, err error) error {
	message, known := errorMessage(err)
	if !known || errors.Is(err, usecases.ErrNodeUnavailable) {
		slog.Error("command failed", "error", err)
	}
	return respondError(r, message)
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondSuccess(r bot.Responder, description string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func respondEphemeral(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       colorSuccess,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func trackLink(track usecases.Track) string {
	if track.URI != "" {
		return fmt.Sprintf("[%s](%s)", track.Title, track.URI)
	}
	return fmt.Sprintf("**%s**", track.Title)
}

// writeTrackLine writes a single track line to the string builder.
// Escapes period to prevent Discord markdown list formatting.
// A zero index writes the line without a number.
func writeTrackLine(sb *strings.Builder, displayIndex int, track usecases.Track) {
	if displayIndex > 0 {
		fmt.Fprintf(sb, "%d\\. ", displayIndex)
	}
	fmt.Fprintf(sb, "%s - %s `%s`\n", trackLink(track), track.Author, track.FormattedDuration())
}
