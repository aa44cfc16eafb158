package application

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// PlaybackEventHandler routes backend events to the engine of the guild they
// belong to. Events for guilds without a queue are dropped.
type PlaybackEventHandler struct {
	registry   *player.Registry
	voice      *usecases.VoiceChannelService
	subscriber ports.EventSubscriber
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	registry *player.Registry,
	voice *usecases.VoiceChannelService,
	subscriber ports.EventSubscriber,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		registry:   registry,
		voice:      voice,
		subscriber: subscriber,
	}
}

// Start registers the handler with the subscriber.
func (h *PlaybackEventHandler) Start() {
	h.subscriber.Subscribe(h.Handle)
	log.Debug().Msg("playback event handlers properly registered")
}

// Handle dispatches a single event.
func (h *PlaybackEventHandler) Handle(ctx context.Context, event domain.Event) {
	switch e := event.(type) {
	case domain.TrackEndedEvent:
		h.handleTrackEnded(e)
	case domain.TrackFailedEvent:
		h.handleTrackFailed(e)
	case domain.VoiceDisconnectedEvent:
		h.voice.HandleDisconnect(ctx, e.GuildID)
	default:
		log.Warn().Type("event", event).Msg("unhandled event type")
	}
}

func (h *PlaybackEventHandler) handleTrackEnded(event domain.TrackEndedEvent) {
	q, ok := h.registry.Get(event.GuildID)
	if !ok {
		log.Debug().Stringer("guild", event.GuildID).Msg("track ended without a queue, ignoring")
		return
	}

	log.Debug().
		Stringer("guild", event.GuildID).
		Str("reason", string(event.Reason)).
		Msg("track ended")

	q.Engine().OnTrackEnd(event.Encoded, event.Reason)
}

func (h *PlaybackEventHandler) handleTrackFailed(event domain.TrackFailedEvent) {
	q, ok := h.registry.Get(event.GuildID)
	if !ok {
		return
	}

	log.Warn().
		Stringer("guild", event.GuildID).
		Str("message", event.Message).
		Msg("backend reported a track failure")

	q.Engine().OnTrackFailed(event.Encoded, event.Message)
}
