package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ErrNoLavalinkNode is returned when no Lavalink node is available.
var ErrNoLavalinkNode = errors.New("no available Lavalink node")

// leaveEchoTimeout is how long a requested leave waits for Discord's disconnect
// echo. A disconnect seen later is reported as unexpected.
const leaveEchoTimeout = 10 * time.Second

// pendingVoiceConnection waits for both halves of the voice handshake.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

func newPendingVoiceConnection() *pendingVoiceConnection {
	return &pendingVoiceConnection{ready: make(chan struct{})}
}

// onEvent marks an event as received and closes ready once both are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds voice events until both VoiceStateUpdate and
// VoiceServerUpdate arrived, so Lavalink never sees a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and reports whether both events are present.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceServer
}

// setVoiceServer stores voice server data and reports whether both events are present.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState
}

// take returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) take() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint
	*b = voiceEventBuffer{}
	return
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// LavalinkAdapter connects the player to Lavalink through DisGoLink.
// It is the audio sink, the voice transport and the track loader, and it
// publishes Lavalink player events as domain events.
type LavalinkAdapter struct {
	link      disgolink.Client
	session   *discordgo.Session
	botID     snowflake.ID
	publisher ports.EventPublisher

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	// leaving holds guilds the bot asked to leave, with the deadline for
	// observing the disconnect.
	leavingMu sync.Mutex
	leaving   map[snowflake.ID]time.Time
	now       func() time.Time
}

// Compile-time checks that LavalinkAdapter implements ports interfaces.
var (
	_ ports.AudioSink      = (*LavalinkAdapter)(nil)
	_ ports.VoiceTransport = (*LavalinkAdapter)(nil)
	_ ports.TrackLoader    = (*LavalinkAdapter)(nil)
)

// NewLavalinkAdapter creates a LavalinkAdapter and connects to the Lavalink node.
// The session must already be open.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
	publisher ports.EventPublisher,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse bot ID")
	}

	adapter := newAdapter(session, botID, publisher)

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)

	node, err := adapter.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to add Lavalink node")
	}

	log.Info().
		Str("node", node.Config().Name).
		Str("address", config.Address).
		Msg("connected to Lavalink")

	return adapter, nil
}

func newAdapter(session *discordgo.Session, botID snowflake.ID, publisher ports.EventPublisher) *LavalinkAdapter {
	return &LavalinkAdapter{
		session:      session,
		botID:        botID,
		publisher:    publisher,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		leaving:      make(map[snowflake.ID]time.Time),
		now:          time.Now,
	}
}

// Close disconnects from every Lavalink node.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// JoinChannel connects to a voice channel and waits until both voice events
// arrived or ctx is done.
func (c *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	pending := newPendingVoiceConnection()

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		if c.pending[guildID] == pending {
			delete(c.pending, guildID)
		}
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return errors.Wrap(err, "failed to join voice channel")
	}

	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "gave up waiting for voice connection")
	}
}

// LeaveChannel disconnects from the guild's voice channel. The resulting
// disconnect is not reported as a VoiceDisconnectedEvent.
func (c *LavalinkAdapter) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	if c.inVoice(guildID) {
		c.expectLeave(guildID)
	}

	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		c.consumeLeave(guildID)
		return errors.Wrap(err, "failed to leave voice channel")
	}
	return nil
}

// inVoice reports whether the bot currently sits in a voice channel of the guild.
func (c *LavalinkAdapter) inVoice(guildID snowflake.ID) bool {
	vs, err := c.session.State.VoiceState(guildID.String(), c.botID.String())
	return err == nil && vs.ChannelID != ""
}

func (c *LavalinkAdapter) expectLeave(guildID snowflake.ID) {
	c.leavingMu.Lock()
	defer c.leavingMu.Unlock()
	c.leaving[guildID] = c.now().Add(leaveEchoTimeout)
}

// consumeLeave reports whether a leave was expected and has not expired, and forgets it.
func (c *LavalinkAdapter) consumeLeave(guildID snowflake.ID) bool {
	c.leavingMu.Lock()
	defer c.leavingMu.Unlock()
	deadline, ok := c.leaving[guildID]
	delete(c.leaving, guildID)
	return ok && !c.now().After(deadline)
}

// Play starts res on the guild's Lavalink player at the resource volume.
func (c *LavalinkAdapter) Play(ctx context.Context, guildID snowflake.ID, res *domain.Resource) error {
	player := c.link.Player(guildID)

	// WithEncodedTrack avoids sending userData:null.
	err := player.Update(ctx,
		lavalink.WithEncodedTrack(res.Encoded),
		lavalink.WithVolume(res.Volume),
		lavalink.WithPaused(false),
	)
	if err != nil {
		return errors.Wrap(err, "failed to play track")
	}
	return nil
}

// Stop unloads the current track.
func (c *LavalinkAdapter) Stop(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.ExistingPlayer(guildID)
	if player == nil {
		return nil
	}

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return errors.Wrap(err, "failed to stop playback")
	}
	return nil
}

// SetPaused pauses or resumes the current track.
func (c *LavalinkAdapter) SetPaused(ctx context.Context, guildID snowflake.ID, paused bool) error {
	player := c.link.ExistingPlayer(guildID)
	if player == nil {
		return errors.Newf("no player for guild %s", guildID)
	}

	if err := player.Update(ctx, lavalink.WithPaused(paused)); err != nil {
		return errors.Wrapf(err, "failed to set paused=%t", paused)
	}
	return nil
}

// Destroy removes the guild's Lavalink player.
func (c *LavalinkAdapter) Destroy(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.ExistingPlayer(guildID)
	if player == nil {
		return nil
	}

	if err := player.Destroy(ctx); err != nil {
		return errors.Wrap(err, "failed to destroy player")
	}
	return nil
}

// LoadTracks loads or searches tracks on the best available node.
func (c *LavalinkAdapter) LoadTracks(ctx context.Context, query string) (*ports.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, ErrNoLavalinkNode
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tracks for %q", query)
	}

	return convertLoadResult(result), nil
}

func convertLoadResult(result *lavalink.LoadResult) *ports.LoadResult {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.LoadResult{
			Type:   ports.LoadTypeTrack,
			Tracks: []*ports.TrackInfo{convertTrack(data)},
		}

	case lavalink.Playlist:
		return &ports.LoadResult{
			Type:   ports.LoadTypePlaylist,
			Tracks: convertTracks(data.Tracks),
		}

	case lavalink.Search:
		return &ports.LoadResult{
			Type:   ports.LoadTypeSearch,
			Tracks: convertTracks(data),
		}

	case lavalink.Exception:
		return &ports.LoadResult{
			Type:    ports.LoadTypeError,
			Message: data.Message,
		}

	default:
		return &ports.LoadResult{Type: ports.LoadTypeEmpty}
	}
}

func convertTracks(tracks []lavalink.Track) []*ports.TrackInfo {
	out := make([]*ports.TrackInfo, len(tracks))
	for i, track := range tracks {
		out[i] = convertTrack(track)
	}
	return out
}

func convertTrack(track lavalink.Track) *ports.TrackInfo {
	info := track.Info
	uri := ""
	if info.URI != nil {
		uri = *info.URI
	}

	return &ports.TrackInfo{
		Identifier: info.Identifier,
		Encoded:    track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		URI:        uri,
		SourceName: info.SourceName,
		IsStream:   info.IsStream,
	}
}

// OnVoiceServerUpdate handles Discord voice server updates.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse guild ID in voice server update")
		return
	}

	if c.voiceBuffer(guildID).setVoiceServer(event.Token, event.Endpoint) {
		c.forwardVoiceEvents(guildID)
	}

	c.signalPending(guildID, false)
}

// OnVoiceStateUpdate handles Discord voice state updates of the bot itself.
// A disconnect the bot did not ask for is published as a VoiceDisconnectedEvent.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse guild ID in voice state update")
		return
	}

	if event.ChannelID == "" {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.clearVoiceBuffer(guildID)
		c.handleDisconnect(guildID)
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse channel ID in voice state update")
		return
	}

	if c.voiceBuffer(guildID).setVoiceState(&channelID, event.SessionID) {
		c.forwardVoiceEvents(guildID)
	}

	c.signalPending(guildID, true)
}

func (c *LavalinkAdapter) handleDisconnect(guildID snowflake.ID) {
	if c.consumeLeave(guildID) {
		log.Debug().Stringer("guild", guildID).Msg("left voice channel")
		return
	}

	log.Warn().Stringer("guild", guildID).Msg("disconnected from voice channel unexpectedly")
	c.publish(domain.VoiceDisconnectedEvent{GuildID: guildID})
}

func (c *LavalinkAdapter) signalPending(guildID snowflake.ID, isVoiceState bool) {
	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(isVoiceState)
	}
}

func (c *LavalinkAdapter) voiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, ok := c.voiceBuffers[guildID]
	if !ok {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

// forwardVoiceEvents sends the buffered voice events to Lavalink, state first.
func (c *LavalinkAdapter) forwardVoiceEvents(guildID snowflake.ID) {
	channelID, sessionID, token, endpoint := c.voiceBuffer(guildID).take()

	log.Debug().
		Stringer("guild", guildID).
		Bool("has_session", sessionID != "").
		Msg("forwarding voice events to Lavalink")

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkAdapter) publish(event domain.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(event); err != nil {
		log.Warn().Err(err).Stringer("guild", event.EventGuildID()).Msg("failed to publish event")
	}
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	log.Debug().
		Stringer("guild", player.GuildID()).
		Str("track", event.Track.Info.Title).
		Msg("track started")
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	log.Debug().
		Stringer("guild", player.GuildID()).
		Str("reason", string(event.Reason)).
		Msg("track ended")

	c.publish(domain.TrackEndedEvent{
		GuildID: player.GuildID(),
		Encoded: event.Track.Encoded,
		Reason:  convertEndReason(event.Reason),
	})
}

func (c *LavalinkAdapter) onTrackException(player disgolink.Player, event lavalink.TrackExceptionEvent) {
	c.publish(domain.TrackFailedEvent{
		GuildID: player.GuildID(),
		Encoded: event.Track.Encoded,
		Message: event.Exception.Message,
	})
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	c.publish(domain.TrackFailedEvent{
		GuildID: player.GuildID(),
		Encoded: event.Track.Encoded,
		Message: stuckMessage(event.Threshold),
	})
}

func stuckMessage(threshold lavalink.Duration) string {
	return "track got stuck for " + (time.Duration(threshold) * time.Millisecond).String()
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}
