package ports

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// PlaybackObserver is told about tracks the queue starts or gives up on.
// Calls happen on the queue's consumer goroutine and must not block for long.
type PlaybackObserver interface {
	TrackStarted(guildID, channelID snowflake.ID, track *domain.Track)
	TrackFailed(guildID, channelID snowflake.ID, track *domain.Track, err error)
}
