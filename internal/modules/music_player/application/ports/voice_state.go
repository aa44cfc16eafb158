package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider reports where users are connected.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the user's voice channel, or 0 if none.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
