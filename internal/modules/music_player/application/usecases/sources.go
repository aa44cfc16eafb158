package usecases

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// directSource opens a stream by loading a known source URL.
type directSource struct {
	loader ports.TrackLoader
	uri    string
}

func (s *directSource) Materialize(ctx context.Context, volume int) (*domain.Resource, error) {
	info, err := loadFirst(ctx, s.loader, s.uri)
	if err != nil {
		return nil, err
	}
	return newResource(info, volume), nil
}

// searchSource opens a stream for a track found by a text search. The URL
// found at resolution time is tried first; the search is repeated if it no
// longer loads.
type searchSource struct {
	loader ports.TrackLoader
	term   string
	uri    string
}

func (s *searchSource) Materialize(ctx context.Context, volume int) (*domain.Resource, error) {
	if s.uri != "" {
		info, err := loadFirst(ctx, s.loader, s.uri)
		if err == nil {
			return newResource(info, volume), nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}

	info, err := loadFirst(ctx, s.loader, s.term)
	if err != nil {
		return nil, err
	}
	return newResource(info, volume), nil
}

// loadFirst loads query and returns the first playable track.
func loadFirst(ctx context.Context, loader ports.TrackLoader, query string) (*ports.TrackInfo, error) {
	result, err := loader.LoadTracks(ctx, query)
	if err != nil {
		return nil, err
	}

	if result.Type == ports.LoadTypeError {
		return nil, errors.Newf("failed to load %q: %s", query, result.Message)
	}

	info := result.First()
	if info == nil {
		return nil, errors.Wrapf(domain.ErrNoResults, "load %q", query)
	}
	return info, nil
}

func newResource(info *ports.TrackInfo, volume int) *domain.Resource {
	return &domain.Resource{
		Encoded: info.Encoded,
		Title:   info.Title,
		Volume:  volume,
	}
}
