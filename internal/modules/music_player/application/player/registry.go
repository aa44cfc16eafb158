package player

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"golang.org/x/sync/errgroup"
)

// Registry maps guilds to their queues. Queues are created on first use and
// removed only when stopped; nothing is evicted in the background.
type Registry struct {
	queues    *xsync.MapOf[snowflake.ID, *Queue]
	sink      ports.AudioSink
	transport ports.VoiceTransport
	observer  ports.PlaybackObserver
	opts      Options
}

// NewRegistry creates an empty registry whose queues share the given backends.
func NewRegistry(
	sink ports.AudioSink,
	transport ports.VoiceTransport,
	observer ports.PlaybackObserver,
	opts Options,
) *Registry {
	return &Registry{
		queues:    xsync.NewMapOf[snowflake.ID, *Queue](),
		sink:      sink,
		transport: transport,
		observer:  observer,
		opts:      opts,
	}
}

// GetOrCreate returns the guild's queue, creating it with volume if the guild
// has none. A stopped queue still present in the map is replaced.
func (r *Registry) GetOrCreate(guildID snowflake.ID, volume int) *Queue {
	q, _ := r.queues.Compute(guildID, func(old *Queue, loaded bool) (*Queue, bool) {
		if loaded && !old.Closed() {
			return old, false
		}
		return NewQueue(guildID, volume, r.sink, r.transport, r.observer, r.opts), false
	})
	return q
}

// Get returns the guild's queue if one exists.
func (r *Registry) Get(guildID snowflake.ID) (*Queue, bool) {
	return r.queues.Load(guildID)
}

// Remove deletes the guild's queue from the registry without stopping it.
func (r *Registry) Remove(guildID snowflake.ID) {
	r.queues.Delete(guildID)
}

// RemoveQueue deletes q only if it is still the guild's registered queue.
func (r *Registry) RemoveQueue(q *Queue) {
	r.queues.Compute(q.GuildID(), func(old *Queue, loaded bool) (*Queue, bool) {
		if !loaded {
			return nil, true
		}
		return old, old == q
	})
}

// Len returns the number of registered queues.
func (r *Registry) Len() int {
	return r.queues.Size()
}

// StopAll stops and removes every queue concurrently.
func (r *Registry) StopAll(ctx context.Context) error {
	var g errgroup.Group

	r.queues.Range(func(_ snowflake.ID, q *Queue) bool {
		g.Go(func() error {
			defer r.RemoveQueue(q)
			return q.Stop(ctx)
		})
		return true
	})

	return g.Wait()
}
