package infrastructure

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifyConfig contains Spotify app credentials.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

// spotifyAPI is the part of the Spotify client the catalog uses.
type spotifyAPI interface {
	GetTrack(ctx context.Context, id spotify.ID, opts ...spotify.RequestOption) (*spotify.FullTrack, error)
}

// SpotifyCatalog looks up track metadata in Spotify.
type SpotifyCatalog struct {
	client     spotifyAPI
	maxRetries int
	retryDelay time.Duration
}

var _ ports.TrackCatalog = (*SpotifyCatalog)(nil)

// NewSpotifyCatalog creates a catalog authenticated with the client
// credentials flow. No user authorization is needed for track lookups.
func NewSpotifyCatalog(ctx context.Context, cfg SpotifyConfig) (*SpotifyCatalog, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}

	// Fail early on bad credentials instead of on the first /play.
	if _, err := creds.Token(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to obtain spotify token")
	}

	client := spotify.New(creds.Client(context.WithoutCancel(ctx)))
	log.Info().Msg("spotify catalog enabled")

	return newSpotifyCatalog(client), nil
}

func newSpotifyCatalog(client spotifyAPI) *SpotifyCatalog {
	return &SpotifyCatalog{
		client:     client,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// GetTrack returns the metadata of a Spotify track.
func (c *SpotifyCatalog) GetTrack(ctx context.Context, id string) (*ports.CatalogTrack, error) {
	var result *spotify.FullTrack
	err := c.retry(ctx, func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get spotify track %s", id)
	}

	artists := make([]string, len(result.Artists))
	for i, a := range result.Artists {
		artists[i] = a.Name
	}

	return &ports.CatalogTrack{
		ID:       string(result.ID),
		Name:     result.Name,
		Artists:  artists,
		Duration: time.Duration(result.Duration) * time.Millisecond,
	}, nil
}

// retry runs fn until it succeeds, fails permanently or runs out of attempts,
// waiting a little longer after each attempt.
func (c *SpotifyCatalog) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := range c.maxRetries {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.CombineErrors(lastErr, ctx.Err())
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable reports whether err looks like a rate limit or server error.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == 429 || apiErr.Status >= 500
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}
