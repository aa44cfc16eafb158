package domain

import (
	"strings"
)

// SearchSource represents the primary catalog used for text searches.
type SearchSource string

const (
	// SourceYouTube searches YouTube.
	SourceYouTube SearchSource = "ytsearch"
	// SourceYouTubeMusic searches YouTube Music.
	SourceYouTubeMusic SearchSource = "ytmsearch"
	// SourceSoundCloud searches SoundCloud.
	SourceSoundCloud SearchSource = "scsearch"
)

// QueryKind classifies a play request.
type QueryKind int

const (
	// QueryKindSearch is free text resolved through a catalog search.
	QueryKindSearch QueryKind = iota
	// QueryKindURL is a directly playable source URL.
	QueryKindURL
	// QueryKindSpotify is a Spotify track link that must be translated into a search.
	QueryKindSpotify
)

// String returns the kind name used in logs.
func (k QueryKind) String() string {
	switch k {
	case QueryKindURL:
		return "url"
	case QueryKindSpotify:
		return "spotify"
	default:
		return "search"
	}
}

// SearchQuery represents a classified play request.
type SearchQuery struct {
	Query     string    // trimmed user input
	Kind      QueryKind // how the query must be resolved
	SpotifyID string    // track ID for QueryKindSpotify
}

// NewSearchQuery classifies user input.
func NewSearchQuery(input string) *SearchQuery {
	input = strings.TrimSpace(input)

	if id, ok := SpotifyTrackID(input); ok {
		return &SearchQuery{Query: input, Kind: QueryKindSpotify, SpotifyID: id}
	}

	if isURL(input) {
		return &SearchQuery{Query: input, Kind: QueryKindURL}
	}

	return &SearchQuery{Query: input, Kind: QueryKindSearch}
}

// IsValid returns true if the query is not empty.
func (q *SearchQuery) IsValid() bool {
	return q.Query != ""
}

// SearchTerm returns the Lavalink identifier that searches source for term.
func SearchTerm(source SearchSource, term string) string {
	return string(source) + ":" + term
}

// SpotifyTrackID extracts the track ID from a Spotify track URL or URI.
func SpotifyTrackID(input string) (string, bool) {
	if id, ok := strings.CutPrefix(input, "spotify:track:"); ok {
		return id, id != ""
	}

	if !isURL(input) || !strings.Contains(input, "open.spotify.com") {
		return "", false
	}

	// open.spotify.com/track/ID and open.spotify.com/intl-xx/track/ID
	_, rest, found := strings.Cut(input, "/track/")
	if !found {
		return "", false
	}
	id, _, _ := strings.Cut(rest, "?")
	id = strings.TrimRight(id, "/")
	return id, id != ""
}

// isURL checks if the input looks like a URL.
func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") ||
		strings.HasPrefix(input, "https://") ||
		strings.HasPrefix(input, "www.")
}
