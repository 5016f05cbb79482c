package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrmusic/internal/modules/music_player/application/usecases"
)

// Discord limits for autocomplete choices.
const (
	maxChoices      = 25
	maxChoiceLength = 100
)

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	autocomplete *usecases.AutocompleteService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(autocomplete *usecases.AutocompleteService) *AutocompleteHandler {
	return &AutocompleteHandler{
		autocomplete: autocomplete,
	}
}

// HandlePlay handles autocomplete for play command.
func (h *AutocompleteHandler) HandlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" && opt.Focused {
			query = opt.StringValue()
			break
		}
	}

	// Don't search for very short queries
	if len([]rune(query)) < 2 {
		respondChoices(s, i, nil)
		return
	}

	output, err := h.autocomplete.SuggestTracks(context.Background(), usecases.SuggestTracksInput{
		Query: query,
	})
	if err != nil {
		slog.Warn("failed to suggest tracks", "error", err)
		respondChoices(s, i, nil)
		return
	}

	respondChoices(s, i, playChoices(output))
}

// HandleQueuePosition handles autocomplete for queue commands taking a position.
func (h *AutocompleteHandler) HandleQueuePosition(s *discordgo.Session, i *discordgo.InteractionCreate) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		slog.Warn("failed to parse guild ID in autocomplete", "error", err, "guildID", i.GuildID)
		return
	}

	respondChoices(s, i, queueChoices(h.autocomplete.QueueTracks(guildID)))
}

func playChoices(output *usecases.SuggestTracksOutput) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(output.Tracks)+1)

	if output.IsPlaylist && len(output.PlaylistURL) <= maxChoiceLength {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name: truncate(
				fmt.Sprintf("📋 %s (%d tracks)", output.PlaylistName, output.TrackCount),
				maxChoiceLength,
			),
			Value: output.PlaylistURL,
		})
	}
	for idx, track := range output.Tracks {
		// Choice values longer than the limit are rejected by Discord.
		if track.URI == "" || len(track.URI) > maxChoiceLength || len(choices) == maxChoices {
			continue
		}

		var name string
		if output.IsPlaylist {
			name = fmt.Sprintf("🎵 %d. %s - %s", idx+1, track.Title, track.Author)
		} else {
			name = fmt.Sprintf("🎵 %s - %s", track.Title, track.Author)
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(name, maxChoiceLength),
			Value: track.URI,
		})
	}

	return choices
}

func queueChoices(tracks []usecases.Track) []*discordgo.ApplicationCommandOptionChoice {
	tracks = tracks[:min(len(tracks), maxChoices)]

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(tracks))
	for idx, track := range tracks {
		// Use 1-indexed positions to match queue list display
		position := idx + 1
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d. %s", position, truncate(track.Title, 90)),
			Value: position,
		})
	}
	return choices
}

func respondChoices(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	choices []*discordgo.ApplicationCommandOptionChoice,
) {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}); err != nil {
		slog.Debug("failed to respond to autocomplete", "error", err)
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
