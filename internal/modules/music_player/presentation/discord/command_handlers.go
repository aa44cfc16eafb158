package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// Embed colors.
const colorQueue = 0x3498DB

// Replies.
const (
	msgGuildOnly      = "This command can only be used in a guild."
	msgNotInVoice     = "You must be in a voice channel to use this command."
	msgJoinFailed     = "Failed to join your voice channel."
	msgLoadFailed     = "Failed to load the track."
	msgQueueGone      = "Playback was stopped while loading the track."
	msgPaused         = "Paused playback."
	msgPauseFailed    = "Failed to pause. Are you sure something is playing?"
	msgResumed        = "Resumed playback."
	msgResumeFailed   = "Failed to resume. Is playback paused?"
	msgNothingPlaying = "Nothing is playing."
	msgSkipped        = "Skipped the current track."
	msgNothingToSkip  = "Nothing to skip."
	msgNoPlayback     = "There is nothing playing."
	msgStopped        = "Stopped playback and cleared the queue."
	msgQueueEmpty     = "The queue is empty."
	queueTitle        = "Current Queue"
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	voiceChannel   *usecases.VoiceChannelService
	playback       *usecases.PlaybackService
	trackLoader    *usecases.TrackLoaderService
	resolveTimeout time.Duration
}

// NewCommandHandlers creates new CommandHandlers.
// resolveTimeout bounds the lookup of a /play query.
func NewCommandHandlers(
	voiceChannel *usecases.VoiceChannelService,
	playback *usecases.PlaybackService,
	trackLoader *usecases.TrackLoaderService,
	resolveTimeout time.Duration,
) *CommandHandlers {
	return &CommandHandlers{
		voiceChannel:   voiceChannel,
		playback:       playback,
		trackLoader:    trackLoader,
		resolveTimeout: resolveTimeout,
	}
}

// HandlePlay handles the /play command.
// The reply is deferred first because joining and resolving may take a while.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, ok := parseGuild(i)
	if !ok {
		return respondEphemeral(r, msgGuildOnly)
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return errors.Wrap(err, "invalid user ID")
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return errors.Wrap(err, "invalid channel ID")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	ctx := context.Background()

	_, err = h.voiceChannel.Join(ctx, usecases.JoinInput{
		GuildID:               guildID,
		UserID:                userID,
		NotificationChannelID: channelID,
	})
	if errors.Is(err, usecases.ErrUserNotInVoice) {
		return r.Edit(msgNotInVoice)
	}
	if err != nil {
		log.Warn().Err(err).Stringer("guild", guildID).Msg("failed to join voice channel")
		return r.Edit(msgJoinFailed)
	}

	resolveCtx, cancel := context.WithTimeout(ctx, h.resolveTimeout)
	defer cancel()

	out, err := h.trackLoader.Resolve(resolveCtx, usecases.ResolveInput{
		Query:       query,
		RequestedBy: displayName(i.Member),
	})
	if err != nil {
		log.Warn().Err(err).Stringer("guild", guildID).Str("query", query).Msg("failed to resolve track")
		return r.Edit(msgLoadFailed)
	}

	err = h.playback.Enqueue(ctx, usecases.EnqueueInput{GuildID: guildID, Track: out.Track})
	if err != nil {
		log.Warn().Err(err).Stringer("guild", guildID).Msg("queue went away before enqueue")
		return r.Edit(msgQueueGone)
	}

	return r.Edit(formatEnqueued(out.Track))
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, ok := parseGuild(i)
	if !ok {
		return respondEphemeral(r, msgGuildOnly)
	}

	paused, err := h.playback.Pause(context.Background(), guildID)
	switch {
	case errors.Is(err, usecases.ErrNoQueue):
		return respondEphemeral(r, msgNothingPlaying)
	case err != nil:
		return err
	case !paused:
		return respondEphemeral(r, msgPauseFailed)
	}
	return respond(r, msgPaused)
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, ok := parseGuild(i)
	if !ok {
		return respondEphemeral(r, msgGuildOnly)
	}

	resumed, err := h.playback.Resume(context.Background(), guildID)
	switch {
	case errors.Is(err, usecases.ErrNoQueue):
		return respondEphemeral(r, msgNothingPlaying)
	case err != nil:
		return err
	case !resumed:
		return respondEphemeral(r, msgResumeFailed)
	}
	return respond(r, msgResumed)
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, ok := parseGuild(i)
	if !ok {
		return respondEphemeral(r, msgGuildOnly)
	}

	skipped, err := h.playback.Skip(context.Background(), guildID)
	switch {
	case errors.Is(err, usecases.ErrNoQueue):
		return respondEphemeral(r, msgNoPlayback)
	case err != nil:
		return err
	case !skipped:
		return respondEphemeral(r, msgNothingToSkip)
	}
	return respond(r, msgSkipped)
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, ok := parseGuild(i)
	if !ok {
		return respondEphemeral(r, msgGuildOnly)
	}

	err := h.playback.Stop(context.Background(), guildID)
	if errors.Is(err, usecases.ErrNoQueue) {
		return respondEphemeral(r, msgNoPlayback)
	}
	if err != nil {
		return err
	}
	return respond(r, msgStopped)
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	guildID, ok := parseGuild(i)
	if !ok {
		return respondEphemeral(r, msgGuildOnly)
	}

	tracks := h.playback.List(guildID)
	if len(tracks) == 0 {
		return respondEphemeral(r, msgQueueEmpty)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       queueTitle,
					Description: formatQueue(tracks),
					Color:       colorQueue,
				},
			},
		},
	})
}

// parseGuild returns the guild of an interaction sent from a guild by a member.
func parseGuild(i *discordgo.InteractionCreate) (snowflake.ID, bool) {
	if i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return 0, false
	}
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return 0, false
	}
	return guildID, true
}

func respond(r bot.Responder, content string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func respondEphemeral(r bot.Responder, content string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
