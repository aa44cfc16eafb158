package usecases

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildID   = snowflake.ID(100)
	userID    = snowflake.ID(200)
	textID    = snowflake.ID(300)
	voiceID   = snowflake.ID(400)
	otherVoID = snowflake.ID(401)
)

func TestVoiceChannelService_Join(t *testing.T) {
	f := newFixture()
	voice := &mockVoiceState{channels: map[snowflake.ID]snowflake.ID{userID: voiceID}}
	svc := NewVoiceChannelService(f.registry, voice, 65)

	out, err := svc.Join(context.Background(), JoinInput{
		GuildID:               guildID,
		UserID:                userID,
		NotificationChannelID: textID,
	})
	require.NoError(t, err)
	assert.Equal(t, voiceID, out.VoiceChannelID)

	q, ok := f.registry.Get(guildID)
	require.True(t, ok)
	assert.True(t, q.IsConnected())
	assert.Equal(t, voiceID, q.ChannelID())
	assert.Equal(t, textID, q.NotificationChannel())
	assert.Equal(t, 65, q.Volume())
	assert.Equal(t, []snowflake.ID{voiceID}, f.transport.joins)
}

func TestVoiceChannelService_JoinSameChannelDoesNotReconnect(t *testing.T) {
	f := newFixture()
	voice := &mockVoiceState{channels: map[snowflake.ID]snowflake.ID{userID: voiceID}}
	svc := NewVoiceChannelService(f.registry, voice, 50)
	ctx := context.Background()

	_, err := svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID, NotificationChannelID: textID})
	require.NoError(t, err)
	_, err = svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID, NotificationChannelID: 301})
	require.NoError(t, err)

	assert.Len(t, f.transport.joins, 1)
	q, _ := f.registry.Get(guildID)
	assert.Equal(t, snowflake.ID(301), q.NotificationChannel())
}

func TestVoiceChannelService_JoinOtherChannelMoves(t *testing.T) {
	f := newFixture()
	voice := &mockVoiceState{channels: map[snowflake.ID]snowflake.ID{userID: voiceID}}
	svc := NewVoiceChannelService(f.registry, voice, 50)
	ctx := context.Background()

	_, err := svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID})
	require.NoError(t, err)

	voice.channels[userID] = otherVoID
	_, err = svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID})
	require.NoError(t, err)

	assert.Equal(t, []snowflake.ID{voiceID, otherVoID}, f.transport.joins)
	assert.Equal(t, 0, f.transport.leaves)
	q, _ := f.registry.Get(guildID)
	assert.Equal(t, otherVoID, q.ChannelID())
}

func TestVoiceChannelService_JoinUserNotInVoice(t *testing.T) {
	f := newFixture()
	svc := NewVoiceChannelService(f.registry, &mockVoiceState{}, 50)

	_, err := svc.Join(context.Background(), JoinInput{GuildID: guildID, UserID: userID})

	assert.ErrorIs(t, err, ErrUserNotInVoice)
	assert.Equal(t, 0, f.registry.Len())
}

func TestVoiceChannelService_JoinVoiceStateError(t *testing.T) {
	f := newFixture()
	stateErr := errors.New("guild not cached")
	svc := NewVoiceChannelService(f.registry, &mockVoiceState{err: stateErr}, 50)

	_, err := svc.Join(context.Background(), JoinInput{GuildID: guildID, UserID: userID})

	assert.ErrorIs(t, err, stateErr)
	assert.Equal(t, 0, f.registry.Len())
}

func TestVoiceChannelService_JoinFailureDiscardsNewQueue(t *testing.T) {
	f := newFixture()
	f.transport.joinErr = errors.New("missing permissions")
	voice := &mockVoiceState{channels: map[snowflake.ID]snowflake.ID{userID: voiceID}}
	svc := NewVoiceChannelService(f.registry, voice, 50)

	_, err := svc.Join(context.Background(), JoinInput{GuildID: guildID, UserID: userID})

	var connErr *domain.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 0, f.registry.Len())
}

func TestVoiceChannelService_JoinFailureKeepsExistingQueue(t *testing.T) {
	f := newFixture()
	voice := &mockVoiceState{channels: map[snowflake.ID]snowflake.ID{userID: voiceID}}
	svc := NewVoiceChannelService(f.registry, voice, 50)
	ctx := context.Background()

	_, err := svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID})
	require.NoError(t, err)
	q, _ := f.registry.Get(guildID)
	require.NoError(t, q.Enqueue(newTrack("A")))
	require.NoError(t, q.Enqueue(newTrack("B")))
	f.sink.waitPlayed(t)

	f.transport.mu.Lock()
	f.transport.joinErr = errors.New("channel full")
	f.transport.mu.Unlock()
	voice.channels[userID] = otherVoID

	_, err = svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID})
	require.Error(t, err)

	got, ok := f.registry.Get(guildID)
	require.True(t, ok)
	assert.Same(t, q, got)
	assert.False(t, q.Closed())
	assert.Len(t, q.Tracks(), 1)
	require.NoError(t, q.Stop(ctx))
}

func TestVoiceChannelService_HandleDisconnect(t *testing.T) {
	f := newFixture()
	voice := &mockVoiceState{channels: map[snowflake.ID]snowflake.ID{userID: voiceID}}
	svc := NewVoiceChannelService(f.registry, voice, 50)
	ctx := context.Background()

	// Unknown guilds are ignored.
	svc.HandleDisconnect(ctx, guildID)

	_, err := svc.Join(ctx, JoinInput{GuildID: guildID, UserID: userID})
	require.NoError(t, err)
	q, _ := f.registry.Get(guildID)

	svc.HandleDisconnect(ctx, guildID)

	assert.True(t, q.Closed())
	assert.Equal(t, 0, f.registry.Len())
}
