package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuild   = "1"
	testUser    = "2"
	testText    = "3"
	testVoiceID = snowflake.ID(4)
)

type stubSink struct {
	played chan *domain.Resource
}

func (s *stubSink) Play(_ context.Context, _ snowflake.ID, res *domain.Resource) error {
	s.played <- res
	return nil
}
func (s *stubSink) Stop(context.Context, snowflake.ID) error            { return nil }
func (s *stubSink) SetPaused(context.Context, snowflake.ID, bool) error { return nil }
func (s *stubSink) Destroy(context.Context, snowflake.ID) error         { return nil }

type stubTransport struct {
	joinErr error
}

func (s *stubTransport) JoinChannel(context.Context, snowflake.ID, snowflake.ID) error {
	return s.joinErr
}
func (s *stubTransport) LeaveChannel(context.Context, snowflake.ID) error { return nil }

type stubVoiceState struct {
	channel snowflake.ID
}

func (s *stubVoiceState) GetUserVoiceChannel(snowflake.ID, snowflake.ID) (snowflake.ID, error) {
	return s.channel, nil
}

type stubLoader struct {
	results map[string]*ports.LoadResult
}

func (s *stubLoader) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	if r, ok := s.results[query]; ok {
		return r, nil
	}
	return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil
}

type handlerFixture struct {
	handlers  *CommandHandlers
	registry  *player.Registry
	sink      *stubSink
	transport *stubTransport
	voice     *stubVoiceState
	loader    *stubLoader
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		sink:      &stubSink{played: make(chan *domain.Resource, 8)},
		transport: &stubTransport{},
		voice:     &stubVoiceState{channel: testVoiceID},
		loader:    &stubLoader{results: make(map[string]*ports.LoadResult)},
	}
	f.registry = player.NewRegistry(f.sink, f.transport, nil, player.Options{})
	t.Cleanup(func() { _ = f.registry.StopAll(context.Background()) })

	f.handlers = NewCommandHandlers(
		usecases.NewVoiceChannelService(f.registry, f.voice, 50),
		usecases.NewPlaybackService(f.registry),
		usecases.NewTrackLoaderService(f.loader, nil, domain.SourceYouTube),
		time.Second,
	)
	return f
}

func (f *handlerFixture) addSearchResult(query, title string, d time.Duration) {
	f.loader.results["ytsearch:"+query] = &ports.LoadResult{
		Type: ports.LoadTypeSearch,
		Tracks: []*ports.TrackInfo{{
			Identifier: title,
			Encoded:    "enc-" + title,
			Title:      title,
			Duration:   d,
			URI:        "https://example.com/" + title,
		}},
	}
}

func interaction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			GuildID:   testGuild,
			ChannelID: testText,
			Member: &discordgo.Member{
				User: &discordgo.User{ID: testUser, Username: "alice"},
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func playInteraction(query string) *discordgo.InteractionCreate {
	return interaction("play", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "query",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: query,
	})
}

func isEphemeral(r *bot.MockResponder) bool {
	return r.LastResponse != nil &&
		r.LastResponse.Data != nil &&
		r.LastResponse.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

func TestHandlePlay(t *testing.T) {
	f := newHandlerFixture(t)
	f.addSearchResult("never gonna", "Never Gonna Give You Up", 213*time.Second)
	r := &bot.MockResponder{}

	err := f.handlers.HandlePlay(nil, playInteraction("never gonna"), r)

	require.NoError(t, err)
	assert.True(t, r.Deferred)
	assert.Equal(t, "Enqueued **Never Gonna Give You Up** (3:33)", r.LastContent())

	select {
	case res := <-f.sink.played:
		assert.Equal(t, "enc-Never Gonna Give You Up", res.Encoded)
		assert.Equal(t, 50, res.Volume)
	case <-time.After(2 * time.Second):
		t.Fatal("track was not played")
	}

	q, ok := f.registry.Get(1)
	require.True(t, ok)
	assert.Equal(t, testVoiceID, q.ChannelID())
	assert.Equal(t, snowflake.ID(3), q.NotificationChannel())
}

func TestHandlePlay_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *handlerFixture)
		query string
		want  string
	}{
		{
			name:  "not in voice",
			setup: func(f *handlerFixture) { f.voice.channel = 0 },
			query: "song",
			want:  msgNotInVoice,
		},
		{
			name:  "join fails",
			setup: func(f *handlerFixture) { f.transport.joinErr = errors.New("no permission") },
			query: "song",
			want:  msgJoinFailed,
		},
		{
			name:  "nothing found",
			setup: func(*handlerFixture) {},
			query: "∅invalid∅",
			want:  msgLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			tt.setup(f)
			r := &bot.MockResponder{}

			err := f.handlers.HandlePlay(nil, playInteraction(tt.query), r)

			require.NoError(t, err)
			assert.True(t, r.Deferred)
			assert.Equal(t, tt.want, r.LastContent())
		})
	}
}

func TestHandlePlay_JoinFailureLeavesNoQueue(t *testing.T) {
	f := newHandlerFixture(t)
	f.transport.joinErr = errors.New("no permission")

	require.NoError(t, f.handlers.HandlePlay(nil, playInteraction("song"), &bot.MockResponder{}))

	assert.Equal(t, 0, f.registry.Len())
}

func TestHandlers_WithoutQueue(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name    string
		handler bot.InteractionHandler
		want    string
	}{
		{"pause", f.handlers.HandlePause, msgNothingPlaying},
		{"resume", f.handlers.HandleResume, msgNothingPlaying},
		{"skip", f.handlers.HandleSkip, msgNoPlayback},
		{"stop", f.handlers.HandleStop, msgNoPlayback},
		{"queue", f.handlers.HandleQueue, msgQueueEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &bot.MockResponder{}

			require.NoError(t, tt.handler(nil, interaction(tt.name), r))

			assert.Equal(t, tt.want, r.LastContent())
			assert.True(t, isEphemeral(r))
		})
	}
}

func TestHandlers_IdleQueue(t *testing.T) {
	f := newHandlerFixture(t)
	f.registry.GetOrCreate(1, 50)

	tests := []struct {
		name    string
		handler bot.InteractionHandler
		want    string
	}{
		{"pause", f.handlers.HandlePause, msgPauseFailed},
		{"resume", f.handlers.HandleResume, msgResumeFailed},
		{"skip", f.handlers.HandleSkip, msgNothingToSkip},
		{"queue", f.handlers.HandleQueue, msgQueueEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &bot.MockResponder{}

			require.NoError(t, tt.handler(nil, interaction(tt.name), r))

			assert.Equal(t, tt.want, r.LastContent())
		})
	}
}

func TestHandlers_PlaybackControls(t *testing.T) {
	f := newHandlerFixture(t)
	f.addSearchResult("a", "A", time.Minute)
	f.addSearchResult("b", "B", 2*time.Minute)

	require.NoError(t, f.handlers.HandlePlay(nil, playInteraction("a"), &bot.MockResponder{}))
	require.NoError(t, f.handlers.HandlePlay(nil, playInteraction("b"), &bot.MockResponder{}))
	<-f.sink.played

	r := &bot.MockResponder{}
	require.NoError(t, f.handlers.HandleQueue(nil, interaction("queue"), r))
	require.NotNil(t, r.LastResponse)
	embed := r.LastResponse.Data.Embeds[0]
	assert.Equal(t, queueTitle, embed.Title)
	assert.Equal(t, "1. **B** (2:00) — requested by alice", embed.Description)

	r = &bot.MockResponder{}
	require.NoError(t, f.handlers.HandlePause(nil, interaction("pause"), r))
	assert.Equal(t, msgPaused, r.LastContent())
	assert.False(t, isEphemeral(r))

	r = &bot.MockResponder{}
	require.NoError(t, f.handlers.HandleResume(nil, interaction("resume"), r))
	assert.Equal(t, msgResumed, r.LastContent())

	r = &bot.MockResponder{}
	require.NoError(t, f.handlers.HandleSkip(nil, interaction("skip"), r))
	assert.Equal(t, msgSkipped, r.LastContent())
	<-f.sink.played

	r = &bot.MockResponder{}
	require.NoError(t, f.handlers.HandleStop(nil, interaction("stop"), r))
	assert.Equal(t, msgStopped, r.LastContent())
	assert.Equal(t, 0, f.registry.Len())
}

func TestHandlers_OutsideGuild(t *testing.T) {
	f := newHandlerFixture(t)
	i := interaction("pause")
	i.GuildID = ""
	i.Member = nil
	r := &bot.MockResponder{}

	require.NoError(t, f.handlers.HandlePause(nil, i, r))

	assert.Equal(t, msgGuildOnly, r.LastContent())
}
