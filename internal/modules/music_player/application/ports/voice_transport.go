package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceTransport joins and leaves voice channels.
type VoiceTransport interface {
	// JoinChannel blocks until the voice connection is ready or ctx is done.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error

	// LeaveChannel disconnects from the guild's voice channel.
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}
