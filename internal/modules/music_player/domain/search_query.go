package domain

import (
	"strings"
)

// SearchSource represents the source for searching tracks.
type SearchSource string

const (
	// SourceYouTube searches YouTube.
	SourceYouTube SearchSource = "ytsearch"
	// SourceYouTubeMusic searches YouTube Music.
	SourceYouTubeMusic SearchSource = "ytmsearch"
	// SourceSoundCloud searches SoundCloud.
	SourceSoundCloud SearchSource = "scsearch"
)

// ParseSearchSource converts a configured name to a SearchSource, defaulting to YouTube.
func ParseSearchSource(name string) SearchSource {
	switch SearchSource(strings.ToLower(strings.TrimSpace(name))) {
	case SourceYouTubeMusic:
		return SourceYouTubeMusic
	case SourceSoundCloud:
		return SourceSoundCloud
	default:
		return SourceYouTube
	}
}

// NormalizeQuery turns user input into a node lookup identifier.
// URLs are passed through; anything else becomes a search on the given source.
// Returns an empty string for blank input.
func NormalizeQuery(input string, source SearchSource) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if isURL(input) {
		return input
	}
	return string(source) + ":" + input
}

// isURL checks if the input looks like a URL.
func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}
