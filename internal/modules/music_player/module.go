package music_player

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/jukebot/internal/modules/music_player/presentation/discord"
)

const (
	// initTimeout bounds connecting to Lavalink and Spotify at startup.
	initTimeout = 30 * time.Second
	// shutdownTimeout bounds stopping every queue on shutdown.
	shutdownTimeout = 10 * time.Second
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter
	registry        *player.Registry
	eventBus        *infrastructure.ChannelEventBus
	playbackHandler *application.PlaybackEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":   m.commandHandlers.HandlePlay,
		"pause":  m.commandHandlers.HandlePause,
		"resume": m.commandHandlers.HandleResume,
		"skip":   m.commandHandlers.HandleSkip,
		"stop":   m.commandHandlers.HandleStop,
		"queue":  m.commandHandlers.HandleQueue,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		m.eventHandlers.HandleVoiceServerUpdate,
		m.eventHandlers.HandleVoiceStateUpdate,
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init connects to Lavalink and wires the player.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("music_player requires a Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	// The adapter publishes into the bus, so the bus comes first.
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	adapter, err := infrastructure.NewLavalinkAdapter(ctx, deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
		Secure:   m.config.LavalinkSecure,
	}, m.eventBus)
	if err != nil {
		m.eventBus.Close()
		return err
	}
	m.lavalinkAdapter = adapter

	// A nil *SpotifyCatalog must not end up in the interface.
	var catalog ports.TrackCatalog
	if m.config.SpotifyEnabled() {
		spotifyCatalog, err := infrastructure.NewSpotifyCatalog(ctx, infrastructure.SpotifyConfig{
			ClientID:     m.config.SpotifyClientID,
			ClientSecret: m.config.SpotifyClientSecret,
		})
		if err != nil {
			log.Warn().Err(err).Msg("spotify lookup disabled, spotify links are passed to Lavalink as is")
		} else {
			catalog = spotifyCatalog
		}
	}

	volume := m.config.Volume()
	m.registry = player.NewRegistry(
		adapter,
		adapter,
		infrastructure.NewNotifier(deps.Session),
		m.config.QueueOptions(),
	)

	voiceChannel := usecases.NewVoiceChannelService(
		m.registry,
		infrastructure.NewVoiceStateProvider(deps.Session),
		volume,
	)
	playback := usecases.NewPlaybackService(m.registry)
	trackLoader := usecases.NewTrackLoaderService(adapter, catalog, m.config.SearchSource())

	m.playbackHandler = application.NewPlaybackEventHandler(m.registry, voiceChannel, m.eventBus)
	m.playbackHandler.Start()

	m.commandHandlers = discord.NewCommandHandlers(
		voiceChannel,
		playback,
		trackLoader,
		m.config.TrackLoadTimeout,
	)
	m.eventHandlers = discord.NewEventHandlers(adapter)

	log.Info().
		Int("volume", volume).
		Str("search_source", string(m.config.SearchSource())).
		Bool("spotify", catalog != nil).
		Msg("music_player module initialized with Lavalink")

	return nil
}

// Shutdown stops every queue and disconnects from Lavalink.
func (m *MusicPlayerModule) Shutdown() error {
	var errs error

	if m.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.registry.StopAll(ctx); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "failed to stop queues"))
		}
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return errs
}
