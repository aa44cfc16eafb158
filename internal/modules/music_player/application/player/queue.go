package player

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ErrQueueClosed is returned by operations on a queue that was stopped.
var ErrQueueClosed = errors.New("queue is stopped")

// Default timeouts.
const (
	DefaultConnectTimeout      = 30 * time.Second
	DefaultMaterializeTimeout  = 15 * time.Second
	DefaultPlaybackWaitTimeout = 24 * time.Hour
)

// Options configures the timeouts of a Queue.
type Options struct {
	// ConnectTimeout bounds the wait for a voice connection to become ready.
	ConnectTimeout time.Duration
	// MaterializeTimeout bounds opening a track's stream and starting it.
	MaterializeTimeout time.Duration
	// PlaybackWaitTimeout is the safety net for a track that never reports its end.
	PlaybackWaitTimeout time.Duration
}

// DefaultOptions returns the default queue options.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:      DefaultConnectTimeout,
		MaterializeTimeout:  DefaultMaterializeTimeout,
		PlaybackWaitTimeout: DefaultPlaybackWaitTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = d.ConnectTimeout
	}
	if o.MaterializeTimeout <= 0 {
		o.MaterializeTimeout = d.MaterializeTimeout
	}
	if o.PlaybackWaitTimeout <= 0 {
		o.PlaybackWaitTimeout = d.PlaybackWaitTimeout
	}
	return o
}

// Queue plays a guild's requested tracks one after another.
//
// Pending tracks are drained by a single consumer goroutine which is started
// by Enqueue when none is running and exits when nothing is left.
type Queue struct {
	guildID   snowflake.ID
	volume    int
	opts      Options
	engine    *Engine
	transport ports.VoiceTransport
	observer  ports.PlaybackObserver

	// ctx is cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	pending       []*domain.Track
	processing    bool
	closed        bool
	conn          *Connection
	notifyChannel snowflake.ID
	loopStarts    int

	// connMu serializes Connect with connection teardown.
	connMu sync.Mutex
}

// NewQueue creates an empty queue for a guild.
func NewQueue(
	guildID snowflake.ID,
	volume int,
	sink ports.AudioSink,
	transport ports.VoiceTransport,
	observer ports.PlaybackObserver,
	opts Options,
) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		guildID:   guildID,
		volume:    volume,
		opts:      opts.withDefaults(),
		engine:    NewEngine(guildID, sink),
		transport: transport,
		observer:  observer,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// GuildID returns the guild this queue belongs to.
func (q *Queue) GuildID() snowflake.ID {
	return q.guildID
}

// Volume returns the output volume fixed at creation.
func (q *Queue) Volume() int {
	return q.volume
}

// Engine returns the queue's playback engine.
func (q *Queue) Engine() *Engine {
	return q.engine
}

// Connect joins channelID, replacing any existing connection. A queue that
// already sits in channelID keeps its connection.
//
// Replacing moves the voice session with a single join so the audio output and
// the current track survive. On failure the queue is left without a connection
// and the current track is stopped, since its output went away with the channel.
func (q *Queue) Connect(ctx context.Context, channelID snowflake.ID) error {
	q.connMu.Lock()
	defer q.connMu.Unlock()

	if q.Closed() {
		return ErrQueueClosed
	}

	old := q.swapConn(nil)
	if old != nil {
		if old.ChannelID() == channelID && old.State() == domain.ConnectionReady {
			q.swapConn(old)
			return nil
		}
		old.detach()
	}

	joinCtx, cancel := context.WithTimeout(ctx, q.opts.ConnectTimeout)
	defer cancel()
	stop := context.AfterFunc(q.ctx, cancel)
	defer stop()

	conn := newConnection(q.guildID, channelID, q.transport)
	if err := conn.open(joinCtx); err != nil {
		cleanupCtx := context.WithoutCancel(ctx)
		if derr := conn.Destroy(cleanupCtx); derr != nil {
			log.Warn().Err(derr).Stringer("guild", q.guildID).Msg("failed to clean up voice connection")
		}
		if old != nil && q.engine.Stop(cleanupCtx) {
			log.Warn().Stringer("guild", q.guildID).Msg("stopped current track after failed channel move")
		}
		return &domain.ConnectionError{GuildID: q.guildID, ChannelID: channelID, Err: err}
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		_ = conn.Destroy(context.WithoutCancel(ctx))
		return ErrQueueClosed
	}
	q.conn = conn
	q.mu.Unlock()

	log.Info().
		Stringer("guild", q.guildID).
		Stringer("channel", channelID).
		Msg("connected to voice channel")

	return nil
}

// swapConn replaces the current connection and returns the previous one.
func (q *Queue) swapConn(conn *Connection) *Connection {
	q.mu.Lock()
	defer q.mu.Unlock()
	old := q.conn
	q.conn = conn
	return old
}

// ChannelID returns the connected voice channel, or 0.
func (q *Queue) ChannelID() snowflake.ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.conn == nil {
		return 0
	}
	return q.conn.ChannelID()
}

// IsConnected reports whether the queue holds a ready connection.
func (q *Queue) IsConnected() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.conn != nil && q.conn.State() == domain.ConnectionReady
}

// SetNotificationChannel sets the text channel that receives now-playing messages.
func (q *Queue) SetNotificationChannel(channelID snowflake.ID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notifyChannel = channelID
}

// NotificationChannel returns the text channel for now-playing messages, or 0.
func (q *Queue) NotificationChannel() snowflake.ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.notifyChannel
}

// Enqueue appends track and starts the consumer if it is not running.
// It never waits for playback.
func (q *Queue) Enqueue(track *domain.Track) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}

	q.pending = append(q.pending, track)
	start := !q.processing
	if start {
		q.processing = true
		q.loopStarts++
	}
	q.mu.Unlock()

	log.Debug().
		Stringer("guild", q.guildID).
		Str("track", track.Title).
		Str("track_id", track.ID).
		Bool("start_loop", start).
		Msg("enqueued track")

	if start {
		go q.process()
	}
	return nil
}

// Tracks returns a copy of the pending tracks. The playing track is not included.
func (q *Queue) Tracks() []*domain.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	tracks := make([]*domain.Track, len(q.pending))
	copy(tracks, q.pending)
	return tracks
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Skip stops the current track so the consumer advances. It reports false
// when nothing is playing.
func (q *Queue) Skip(ctx context.Context) bool {
	return q.engine.Stop(ctx)
}

// Pause pauses the current track.
func (q *Queue) Pause(ctx context.Context) bool {
	return q.engine.Pause(ctx)
}

// Resume resumes the current track.
func (q *Queue) Resume(ctx context.Context) bool {
	return q.engine.Resume(ctx)
}

// Closed reports whether Stop was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Stop clears the queue, stops playback and leaves the voice channel.
// The queue cannot be used afterwards and should be removed from its registry.
// The returned error only reports teardown problems; the queue is stopped regardless.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	q.cancel()

	var errs error
	if err := q.engine.Close(ctx); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrap(err, "failed to release audio output"))
	}

	q.connMu.Lock()
	conn := q.swapConn(nil)
	q.connMu.Unlock()
	if conn != nil {
		if err := conn.Destroy(ctx); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "failed to leave voice channel"))
		}
	}

	log.Info().Stringer("guild", q.guildID).Msg("stopped queue")

	return errs
}

// process is the consumer loop.
func (q *Queue) process() {
	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}
		track := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.play(track)
	}
}

// play materializes a track, starts it and waits until the engine settles.
func (q *Queue) play(track *domain.Track) {
	ctx, cancel := context.WithTimeout(q.ctx, q.opts.MaterializeTimeout)
	done, err := q.start(ctx, track)
	cancel()
	if err != nil {
		if q.ctx.Err() == nil {
			q.trackFailed(track, err)
		}
		return
	}

	q.trackStarted(track)

	timer := time.NewTimer(q.opts.PlaybackWaitTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			q.trackFailed(track, err)
		}
	case <-timer.C:
		log.Warn().
			Stringer("guild", q.guildID).
			Str("track", track.Title).
			Dur("timeout", q.opts.PlaybackWaitTimeout).
			Msg("track never finished, forcing stop")
		q.engine.Stop(q.ctx)
	case <-q.ctx.Done():
	}
}

func (q *Queue) start(ctx context.Context, track *domain.Track) (<-chan error, error) {
	res, err := track.Materialize(ctx, q.volume)
	if err != nil {
		return nil, &domain.PlaybackError{Track: track.Title, Err: err}
	}
	return q.engine.Play(ctx, res)
}

func (q *Queue) trackStarted(track *domain.Track) {
	log.Info().
		Stringer("guild", q.guildID).
		Str("track", track.Title).
		Str("track_id", track.ID).
		Msg("playing track")

	if q.observer != nil {
		q.observer.TrackStarted(q.guildID, q.NotificationChannel(), track)
	}
}

func (q *Queue) trackFailed(track *domain.Track, err error) {
	log.Warn().
		Err(err).
		Stringer("guild", q.guildID).
		Str("track", track.Title).
		Str("track_id", track.ID).
		Msg("skipping track after playback error")

	if q.observer != nil {
		q.observer.TrackFailed(q.guildID, q.NotificationChannel(), track, err)
	}
}
