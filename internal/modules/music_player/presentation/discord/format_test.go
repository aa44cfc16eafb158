package discord

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"github.com/stretchr/testify/assert"
)

type nopSource struct{}

func (nopSource) Materialize(context.Context, int) (*domain.Resource, error) {
	return &domain.Resource{}, nil
}

func track(title, duration, requester string) *domain.Track {
	return domain.NewTrack(title, "", duration, requester, nopSource{})
}

func TestFormatEnqueued(t *testing.T) {
	assert.Equal(t, "Enqueued **Song** (3:05)", formatEnqueued(track("Song", "3:05", "a")))
	assert.Equal(t, "Enqueued **Radio** (LIVE)", formatEnqueued(track("Radio", "LIVE", "a")))
	assert.Equal(t, "Enqueued **Unknown**", formatEnqueued(track("Unknown", "", "a")))
}

func TestFormatQueue(t *testing.T) {
	got := formatQueue([]*domain.Track{
		track("First", "1:00", "alice"),
		track("Second", "", "bob"),
	})

	want := "1. **First** (1:00) — requested by alice\n" +
		"2. **Second** — requested by bob"
	assert.Equal(t, want, got)
}

func TestFormatQueue_Truncates(t *testing.T) {
	tracks := make([]*domain.Track, 200)
	for i := range tracks {
		tracks[i] = track(fmt.Sprintf("%s %d", strings.Repeat("x", 40), i), "3:00", "someone")
	}

	got := formatQueue(tracks)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxEmbedDescription)
	assert.True(t, strings.HasPrefix(got, "1. **"))
	assert.Regexp(t, `…and \d+ more$`, got)
}

func TestFormatQueue_LongTitles(t *testing.T) {
	tracks := make([]*domain.Track, 30)
	for i := range tracks {
		tracks[i] = track(strings.Repeat("b", 100), "3:00", "someone")
	}

	got := formatQueue(tracks)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxEmbedDescription)
	assert.Regexp(t, `…and \d+ more$`, got)
}

func TestFormatQueue_LastLineOverflow(t *testing.T) {
	// Collect the longest list whose full listing still fits.
	var tracks []*domain.Track
	var lines []string
	for {
		next := track(strings.Repeat("é", 100), "3:00", "someone")
		line := formatQueueLine(len(tracks)+1, next)
		if utf8.RuneCountInString(strings.Join(append(lines, line), "\n")) > maxEmbedDescription {
			break
		}
		tracks = append(tracks, next)
		lines = append(lines, line)
	}

	t.Run("fits", func(t *testing.T) {
		assert.Equal(t, strings.Join(lines, "\n"), formatQueue(tracks))
	})

	t.Run("one more track", func(t *testing.T) {
		over := append(tracks, track(strings.Repeat("é", 100), "3:00", "someone"))

		got := formatQueue(over)

		assert.LessOrEqual(t, utf8.RuneCountInString(got), maxEmbedDescription)
		assert.Regexp(t, `…and [12] more$`, got)
	})
}

func TestFormatQueue_SingleHugeTitle(t *testing.T) {
	got := formatQueue([]*domain.Track{track(strings.Repeat("c", 4100), "3:00", "someone")})

	assert.LessOrEqual(t, utf8.RuneCountInString(got), maxEmbedDescription)
	assert.True(t, strings.HasPrefix(got, "1. **ccc"))
	assert.Contains(t, got, "c…** (3:00) — requested by someone")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefghij", truncate("abcdefghij", 10))
	assert.Equal(t, "abcd…", truncate("abcdefghij", 5))
	assert.Equal(t, "ééé…", truncate("éééééé", 4))
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{
			name:   "nickname wins",
			member: &discordgo.Member{Nick: "nick", User: &discordgo.User{GlobalName: "global", Username: "user"}},
			want:   "nick",
		},
		{
			name:   "global name",
			member: &discordgo.Member{User: &discordgo.User{GlobalName: "global", Username: "user"}},
			want:   "global",
		},
		{
			name:   "username",
			member: &discordgo.Member{User: &discordgo.User{Username: "user"}},
			want:   "user",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, displayName(tt.member))
		})
	}
}
