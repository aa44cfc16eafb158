package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ErrEngineClosed is returned by Play after Close.
var ErrEngineClosed = errors.New("playback engine is closed")

// Engine is the per-guild playback state machine over an AudioSink.
//
// Every successful Play returns a channel that receives exactly one value when
// the engine settles back into Idle: nil when the resource finished, was
// stopped or was replaced, or a *domain.PlaybackError when the backend
// reported a fault.
type Engine struct {
	guildID snowflake.ID
	sink    ports.AudioSink

	// mu also serializes sink calls so a stop can never overtake the next play.
	mu      sync.Mutex
	state   domain.EngineState
	current *domain.Resource
	done    chan error
	closed  bool
}

// NewEngine creates an idle engine for a guild.
func NewEngine(guildID snowflake.ID, sink ports.AudioSink) *Engine {
	return &Engine{
		guildID: guildID,
		sink:    sink,
		state:   domain.EngineIdle,
	}
}

// State returns the current engine state.
func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Play starts streaming res, replacing whatever is loaded.
func (e *Engine) Play(ctx context.Context, res *domain.Resource) (<-chan error, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	e.settleLocked(nil)

	if err := e.sink.Play(ctx, e.guildID, res); err != nil {
		return nil, &domain.PlaybackError{Track: res.Title, Err: err}
	}

	done := make(chan error, 1)
	e.state = domain.EnginePlaying
	e.current = res
	e.done = done

	log.Debug().Stringer("guild", e.guildID).Str("track", res.Title).Msg("engine playing")

	return done, nil
}

// Pause moves Playing to Paused. It reports false for any other state.
func (e *Engine) Pause(ctx context.Context) bool {
	return e.setPaused(ctx, domain.EnginePlaying, domain.EnginePaused)
}

// Resume moves Paused to Playing. It reports false for any other state.
func (e *Engine) Resume(ctx context.Context) bool {
	return e.setPaused(ctx, domain.EnginePaused, domain.EnginePlaying)
}

func (e *Engine) setPaused(ctx context.Context, from, to domain.EngineState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != from {
		return false
	}

	if err := e.sink.SetPaused(ctx, e.guildID, to == domain.EnginePaused); err != nil {
		log.Warn().Err(err).Stringer("guild", e.guildID).Msg("failed to change pause state")
		return false
	}

	e.state = to
	return true
}

// Stop forces the engine to Idle. It reports whether anything was loaded.
func (e *Engine) Stop(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.IsActive() {
		return false
	}

	e.settleLocked(nil)

	if err := e.sink.Stop(ctx, e.guildID); err != nil {
		log.Warn().Err(err).Stringer("guild", e.guildID).Msg("failed to stop audio sink")
	}
	return true
}

// Close stops the engine for good and releases the guild's audio output.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.settleLocked(nil)

	return e.sink.Destroy(ctx, e.guildID)
}

// OnTrackEnd handles a track end reported by the backend.
// Stopped and replaced ends are ignored because only the engine itself issues them.
func (e *Engine) OnTrackEnd(encoded string, reason domain.TrackEndReason) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.matchesLocked(encoded) {
		return
	}

	switch reason {
	case domain.TrackEndFinished, domain.TrackEndCleanup:
		e.settleLocked(nil)
	case domain.TrackEndLoadFailed:
		e.settleLocked(&domain.PlaybackError{
			Track: e.current.Title,
			Err:   errors.New("track failed to load"),
		})
	}
}

// OnTrackFailed handles an exception or stuck track reported by the backend.
func (e *Engine) OnTrackFailed(encoded, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.matchesLocked(encoded) {
		return
	}

	e.settleLocked(&domain.PlaybackError{
		Track: e.current.Title,
		Err:   errors.New(message),
	})
}

// matchesLocked reports whether a backend event refers to the loaded resource.
func (e *Engine) matchesLocked(encoded string) bool {
	if !e.state.IsActive() || e.current == nil {
		return false
	}
	return encoded == "" || encoded == e.current.Encoded
}

// settleLocked moves to Idle and delivers err to the pending waiter, if any.
func (e *Engine) settleLocked(err error) {
	if e.done != nil {
		e.done <- err
		e.done = nil
	}
	e.state = domain.EngineIdle
	e.current = nil
}
