package music_player

import (
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// DefaultVolume is used when MUSIC_VOLUME is unset or unusable.
const DefaultVolume = 50

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty" validate:"hostname_port"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"`

	// RawVolume is read as text so a bad value falls back to DefaultVolume
	// instead of failing startup.
	RawVolume    string `env:"MUSIC_VOLUME"`
	SearchPrefix string `env:"MUSIC_SEARCH_PREFIX" envDefault:"ytsearch" validate:"oneof=ytsearch ytmsearch scsearch"`

	VoiceConnectTimeout time.Duration `env:"VOICE_CONNECT_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	TrackLoadTimeout    time.Duration `env:"TRACK_LOAD_TIMEOUT" envDefault:"15s" validate:"gt=0"`
	PlaybackWaitTimeout time.Duration `env:"PLAYBACK_WAIT_TIMEOUT" envDefault:"24h" validate:"gt=0"`

	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID" validate:"required_with=SpotifyClientSecret"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET" validate:"required_with=SpotifyClientID"`
}

// LoadConfig parses and validates the module configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse music player config")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid music player config")
	}

	return cfg, nil
}

// Volume returns the configured output volume in 0..100.
func (c *Config) Volume() int {
	raw := strings.TrimSpace(c.RawVolume)
	if raw == "" {
		return DefaultVolume
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > 100 {
		log.Warn().Str("value", c.RawVolume).Int("default", DefaultVolume).Msg("invalid MUSIC_VOLUME, using default")
		return DefaultVolume
	}
	return v
}

// SearchSource returns the catalog used for free-text queries.
func (c *Config) SearchSource() domain.SearchSource {
	return domain.SearchSource(c.SearchPrefix)
}

// SpotifyEnabled reports whether Spotify credentials are configured.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// QueueOptions returns the timeouts applied to every guild queue.
func (c *Config) QueueOptions() player.Options {
	return player.Options{
		ConnectTimeout:      c.VoiceConnectTimeout,
		MaterializeTimeout:  c.TrackLoadTimeout,
		PlaybackWaitTimeout: c.PlaybackWaitTimeout,
	}
}
