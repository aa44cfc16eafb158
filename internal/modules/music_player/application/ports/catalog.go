package ports

import (
	"context"
	"time"
)

// CatalogTrack is track metadata from a secondary catalog that has no
// playable audio of its own.
type CatalogTrack struct {
	ID       string
	Name     string
	Artists  []string
	Duration time.Duration
}

// SearchText returns the text used to find the track in the primary catalog.
func (t *CatalogTrack) SearchText() string {
	if len(t.Artists) == 0 {
		return t.Name
	}
	return t.Name + " - " + t.Artists[0]
}

// TrackCatalog looks up tracks in a secondary catalog such as Spotify.
type TrackCatalog interface {
	GetTrack(ctx context.Context, id string) (*CatalogTrack, error)
}
