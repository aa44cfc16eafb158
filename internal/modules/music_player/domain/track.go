package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// StreamSource opens the playable stream for a track on demand.
// Implementations perform network I/O, so Materialize is only called when
// the queue is ready to play the track.
type StreamSource interface {
	Materialize(ctx context.Context, volume int) (*Resource, error)
}

// Resource is a materialized, ready-to-play stream bound to an output volume.
type Resource struct {
	Encoded string // Lavalink encoded track
	Title   string
	Volume  int // 0-100
}

// Track is a resolved play request. It is never mutated after construction.
type Track struct {
	ID          string // unique per request, used to correlate logs
	Title       string
	URL         string
	Duration    string // already formatted; empty when unknown
	RequestedBy string

	source StreamSource
}

// NewTrack creates a Track whose stream is opened later through source.
func NewTrack(title, url, duration, requestedBy string, source StreamSource) *Track {
	return &Track{
		ID:          uuid.NewString(),
		Title:       title,
		URL:         url,
		Duration:    duration,
		RequestedBy: requestedBy,
		source:      source,
	}
}

// Materialize opens the track's stream at the given volume.
func (t *Track) Materialize(ctx context.Context, volume int) (*Resource, error) {
	if t.source == nil {
		return nil, errors.Newf("track %q has no stream source", t.Title)
	}
	return t.source.Materialize(ctx, volume)
}

// FormatDuration returns the duration as m:ss or h:mm:ss.
// Streams are shown as LIVE and unknown durations as the empty string.
func FormatDuration(d time.Duration, isStream bool) string {
	if isStream {
		return "LIVE"
	}
	if d <= 0 {
		return ""
	}

	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
