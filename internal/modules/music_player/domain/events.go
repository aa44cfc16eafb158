package domain

import "github.com/disgoorg/snowflake/v2"

// Event is a signal raised by the audio backend for one guild.
type Event interface {
	EventGuildID() snowflake.ID
}

// TrackEndReason describes why the audio backend stopped a track.
type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// TrackEndedEvent is raised when the backend reports the end of a track.
type TrackEndedEvent struct {
	GuildID snowflake.ID
	Encoded string
	Reason  TrackEndReason
}

// TrackFailedEvent is raised when the backend reports an exception or a stuck track.
type TrackFailedEvent struct {
	GuildID snowflake.ID
	Encoded string
	Message string
}

// VoiceDisconnectedEvent is raised when the bot is removed from a voice
// channel without having asked to leave.
type VoiceDisconnectedEvent struct {
	GuildID snowflake.ID
}

func (e TrackEndedEvent) EventGuildID() snowflake.ID        { return e.GuildID }
func (e TrackFailedEvent) EventGuildID() snowflake.ID       { return e.GuildID }
func (e VoiceDisconnectedEvent) EventGuildID() snowflake.ID { return e.GuildID }
