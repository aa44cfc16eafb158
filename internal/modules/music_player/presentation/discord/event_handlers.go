package discord

import "github.com/bwmarrin/discordgo"

// VoiceEventSink receives the raw voice events the audio backend needs.
type VoiceEventSink interface {
	OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate)
	OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate)
}

// EventHandlers forwards Discord gateway voice events to the audio backend.
type EventHandlers struct {
	sink VoiceEventSink
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(sink VoiceEventSink) *EventHandlers {
	return &EventHandlers{sink: sink}
}

// HandleVoiceStateUpdate handles VoiceStateUpdate events.
func (h *EventHandlers) HandleVoiceStateUpdate(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	h.sink.OnVoiceStateUpdate(event)
}

// HandleVoiceServerUpdate handles VoiceServerUpdate events.
func (h *EventHandlers) HandleVoiceServerUpdate(_ *discordgo.Session, event *discordgo.VoiceServerUpdate) {
	h.sink.OnVoiceServerUpdate(event)
}
