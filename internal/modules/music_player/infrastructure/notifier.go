package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorBlue = 0x3498DB
	colorRed  = 0xE74C3C
)

// embedSender is the part of the Discord session the notifier uses.
type embedSender interface {
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Notifier posts now-playing and failure messages to the guild's
// notification channel. Messages are sent in the background so the
// queue is never held up by Discord.
type Notifier struct {
	sender embedSender
}

var _ ports.PlaybackObserver = (*Notifier)(nil)

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{sender: session}
}

// TrackStarted announces the track that just started.
func (n *Notifier) TrackStarted(guildID, channelID snowflake.ID, track *domain.Track) {
	n.send(guildID, channelID, nowPlayingEmbed(track))
}

// TrackFailed reports a track that was skipped because it could not be played.
func (n *Notifier) TrackFailed(guildID, channelID snowflake.ID, track *domain.Track, err error) {
	n.send(guildID, channelID, failedEmbed(track, err))
}

func (n *Notifier) send(guildID, channelID snowflake.ID, embed *discordgo.MessageEmbed) {
	if channelID == 0 {
		return
	}

	go func() {
		if _, err := n.sender.ChannelMessageSendEmbed(channelID.String(), embed); err != nil {
			log.Warn().
				Err(err).
				Stringer("guild", guildID).
				Stringer("channel", channelID).
				Msg("failed to send notification")
		}
	}()
}

func nowPlayingEmbed(track *domain.Track) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: "Now Playing"},
		Title:  track.Title,
		URL:    track.URL,
		Color:  colorBlue,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Requested by %s", track.RequestedBy),
		},
	}

	if track.Duration != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  track.Duration,
			Inline: true,
		})
	}
	return embed
}

func failedEmbed(track *domain.Track, err error) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Failed to play **%s**, skipping.", track.Title),
		Color:       colorRed,
		Footer:      &discordgo.MessageEmbedFooter{Text: err.Error()},
	}
}
