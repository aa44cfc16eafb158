package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// AudioSink is the audio output of a guild. Completion is reported
// asynchronously through domain events, never by these calls.
type AudioSink interface {
	// Play starts streaming the resource, replacing anything already loaded.
	Play(ctx context.Context, guildID snowflake.ID, res *domain.Resource) error

	// Stop unloads the current resource.
	Stop(ctx context.Context, guildID snowflake.ID) error

	// SetPaused pauses or resumes the current resource.
	SetPaused(ctx context.Context, guildID snowflake.ID, paused bool) error

	// Destroy releases the guild's output entirely.
	Destroy(ctx context.Context, guildID snowflake.ID) error
}
