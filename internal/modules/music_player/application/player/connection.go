package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// errConnectionDestroyed is returned when a connection is torn down while joining.
var errConnectionDestroyed = errors.New("voice connection destroyed while connecting")

// Connection is one attempt to be present in a voice channel.
// It moves Connecting -> Ready -> Destroyed and never leaves Destroyed.
type Connection struct {
	guildID   snowflake.ID
	channelID snowflake.ID
	transport ports.VoiceTransport

	mu    sync.Mutex
	state domain.ConnectionState
}

func newConnection(guildID, channelID snowflake.ID, transport ports.VoiceTransport) *Connection {
	return &Connection{
		guildID:   guildID,
		channelID: channelID,
		transport: transport,
		state:     domain.ConnectionConnecting,
	}
}

// ChannelID returns the voice channel of this connection.
func (c *Connection) ChannelID() snowflake.ID {
	return c.channelID
}

// State returns the connection state.
func (c *Connection) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// open joins the channel and waits until the transport is ready.
func (c *Connection) open(ctx context.Context) error {
	if err := c.transport.JoinChannel(ctx, c.guildID, c.channelID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == domain.ConnectionDestroyed {
		return errConnectionDestroyed
	}
	c.state = domain.ConnectionReady
	return nil
}

// detach marks the connection destroyed without leaving the channel. The
// transport keeps its voice session so a following join moves it.
func (c *Connection) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = domain.ConnectionDestroyed
}

// Destroy leaves the channel. Destroying twice is a no-op.
func (c *Connection) Destroy(ctx context.Context) error {
	c.mu.Lock()
	if c.state == domain.ConnectionDestroyed {
		c.mu.Unlock()
		return nil
	}
	c.state = domain.ConnectionDestroyed
	c.mu.Unlock()

	return c.transport.LeaveChannel(ctx, c.guildID)
}
