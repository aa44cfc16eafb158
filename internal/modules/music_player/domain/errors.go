package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
)

// ErrNoResults is returned when a catalog lookup yields nothing playable.
var ErrNoResults = errors.New("no results found")

// ResolutionError reports a query that could not be turned into a track.
type ResolutionError struct {
	Query string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ConnectionError reports a voice channel that could not be joined.
type ConnectionError struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to voice channel %s: %v", e.ChannelID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PlaybackError reports a fault while a single track was being played.
type PlaybackError struct {
	Track string
	Err   error
}

func (e *PlaybackError) Error() string {
	if e.Track == "" {
		return fmt.Sprintf("playback failed: %v", e.Err)
	}
	return fmt.Sprintf("playback of %q failed: %v", e.Track, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }
