package discord

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// maxEmbedDescription is Discord's limit for embed descriptions, in characters.
const maxEmbedDescription = 4096

// maxQueueTitle caps a title in the queue listing so a single line always fits an embed.
const maxQueueTitle = 200

func formatTrack(track *domain.Track) string {
	return formatEntry(track.Title, track.Duration)
}

func formatEntry(title, duration string) string {
	if duration == "" {
		return fmt.Sprintf("**%s**", title)
	}
	return fmt.Sprintf("**%s** (%s)", title, duration)
}

func formatEnqueued(track *domain.Track) string {
	return "Enqueued " + formatTrack(track)
}

func formatQueueLine(n int, track *domain.Track) string {
	entry := formatEntry(truncate(track.Title, maxQueueTitle), track.Duration)
	return fmt.Sprintf("%d. %s — requested by %s", n, entry, track.RequestedBy)
}

func formatMore(n int) string {
	return fmt.Sprintf("…and %d more", n)
}

// formatQueue lists the pending tracks one per line. Lines that would not fit
// into an embed are replaced by a count of the remaining tracks.
func formatQueue(tracks []*domain.Track) string {
	// Room kept for the newline and the longest possible count line.
	reserve := 1 + utf8.RuneCountInString(formatMore(len(tracks)))

	var sb strings.Builder
	size := 0
	for i, track := range tracks {
		line := formatQueueLine(i+1, track)
		need := utf8.RuneCountInString(line)
		if i > 0 {
			need++
		}

		limit := maxEmbedDescription
		if i < len(tracks)-1 {
			limit -= reserve
		}
		if size+need > limit {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(formatMore(len(tracks) - i))
			break
		}

		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
		size += need
	}
	return sb.String()
}

// truncate shortens s to at most limit characters, ending it with an ellipsis when cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// displayName returns the effective name of a guild member.
// Priority: guild nickname > global display name > username.
func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
