package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
}

// VoiceChannelService puts the guild's queue into the caller's voice channel.
type VoiceChannelService struct {
	registry   *player.Registry
	voiceState ports.VoiceStateProvider
	volume     int
}

// NewVoiceChannelService creates a new VoiceChannelService.
// volume is applied to queues created by Join.
func NewVoiceChannelService(
	registry *player.Registry,
	voiceState ports.VoiceStateProvider,
	volume int,
) *VoiceChannelService {
	return &VoiceChannelService{
		registry:   registry,
		voiceState: voiceState,
		volume:     volume,
	}
}

// Join connects the guild's queue to the voice channel the user is in,
// creating the queue if needed. A queue already in that channel is reused.
// If the connection fails, a queue created by this call is discarded again.
func (v *VoiceChannelService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	channelID, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if channelID == 0 {
		return nil, ErrUserNotInVoice
	}

	existing, existed := v.registry.Get(input.GuildID)
	q := v.registry.GetOrCreate(input.GuildID, v.volume)
	created := !existed || existing != q

	if q.IsConnected() && q.ChannelID() == channelID {
		q.SetNotificationChannel(input.NotificationChannelID)
		return &JoinOutput{VoiceChannelID: channelID}, nil
	}

	if err := q.Connect(ctx, channelID); err != nil {
		if created {
			if serr := q.Stop(context.WithoutCancel(ctx)); serr != nil {
				log.Warn().Err(serr).Stringer("guild", input.GuildID).Msg("failed to discard queue")
			}
			v.registry.RemoveQueue(q)
		}
		return nil, err
	}

	q.SetNotificationChannel(input.NotificationChannelID)
	return &JoinOutput{VoiceChannelID: channelID}, nil
}

// HandleDisconnect tears down the guild's queue after the bot lost its voice
// connection without asking to leave.
func (v *VoiceChannelService) HandleDisconnect(ctx context.Context, guildID snowflake.ID) {
	q, ok := v.registry.Get(guildID)
	if !ok {
		return
	}

	log.Info().Stringer("guild", guildID).Msg("voice connection lost, stopping queue")

	if err := q.Stop(ctx); err != nil {
		log.Warn().Err(err).Stringer("guild", guildID).Msg("failed to stop queue after disconnect")
	}
	v.registry.RemoveQueue(q)
}
