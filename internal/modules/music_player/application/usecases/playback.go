package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID snowflake.ID
	Track   *domain.Track
}

// PlaybackService controls the queue of a guild.
type PlaybackService struct {
	registry *player.Registry
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(registry *player.Registry) *PlaybackService {
	return &PlaybackService{registry: registry}
}

func (p *PlaybackService) queue(guildID snowflake.ID) (*player.Queue, error) {
	q, ok := p.registry.Get(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	return q, nil
}

// Enqueue adds a resolved track to the guild's queue.
func (p *PlaybackService) Enqueue(_ context.Context, input EnqueueInput) error {
	q, err := p.queue(input.GuildID)
	if err != nil {
		return err
	}
	return q.Enqueue(input.Track)
}

// Pause pauses playback. It reports false when nothing is playing.
func (p *PlaybackService) Pause(ctx context.Context, guildID snowflake.ID) (bool, error) {
	q, err := p.queue(guildID)
	if err != nil {
		return false, err
	}
	return q.Pause(ctx), nil
}

// Resume resumes playback. It reports false when playback is not paused.
func (p *PlaybackService) Resume(ctx context.Context, guildID snowflake.ID) (bool, error) {
	q, err := p.queue(guildID)
	if err != nil {
		return false, err
	}
	return q.Resume(ctx), nil
}

// Skip skips the current track. It reports false when nothing is playing.
func (p *PlaybackService) Skip(ctx context.Context, guildID snowflake.ID) (bool, error) {
	q, err := p.queue(guildID)
	if err != nil {
		return false, err
	}
	return q.Skip(ctx), nil
}

// Stop stops playback, clears the queue, leaves the voice channel and
// forgets the queue.
func (p *PlaybackService) Stop(ctx context.Context, guildID snowflake.ID) error {
	q, err := p.queue(guildID)
	if err != nil {
		return err
	}

	if err := q.Stop(ctx); err != nil {
		log.Warn().Err(err).Stringer("guild", guildID).Msg("queue stopped with errors")
	}
	p.registry.RemoveQueue(q)
	return nil
}

// List returns the pending tracks, excluding the one playing.
// A guild without a queue has an empty list.
func (p *PlaybackService) List(guildID snowflake.ID) []*domain.Track {
	q, ok := p.registry.Get(guildID)
	if !ok {
		return nil
	}
	return q.Tracks()
}
