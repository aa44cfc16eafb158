package ports

import (
	"context"
	"time"
)

// TrackLoader loads or searches tracks in the primary audio catalog.
type TrackLoader interface {
	LoadTracks(ctx context.Context, query string) (*LoadResult, error)
}

// LoadResult represents the result of loading tracks.
type LoadResult struct {
	Type   LoadType
	Tracks []*TrackInfo
	// Message is set for LoadTypeError.
	Message string
}

// LoadType represents the type of load result.
type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// First returns the first track of the result, or nil.
func (r *LoadResult) First() *TrackInfo {
	if r == nil || len(r.Tracks) == 0 {
		return nil
	}
	return r.Tracks[0]
}

// TrackInfo contains information about a loaded track.
type TrackInfo struct {
	Identifier string
	Encoded    string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	SourceName string // e.g., "youtube", "soundcloud"
	IsStream   bool
}
