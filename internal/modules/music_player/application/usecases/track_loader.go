package usecases

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ResolveInput contains the input for the Resolve use case.
type ResolveInput struct {
	Query       string
	RequestedBy string
}

// ResolveOutput contains the result of the Resolve use case.
type ResolveOutput struct {
	Track *domain.Track
}

// TrackLoaderService turns play requests into tracks.
type TrackLoaderService struct {
	loader       ports.TrackLoader
	catalog      ports.TrackCatalog // optional
	searchSource domain.SearchSource
}

// NewTrackLoaderService creates a new TrackLoaderService.
// catalog may be nil, in which case Spotify links are handed to the loader as plain URLs.
func NewTrackLoaderService(
	loader ports.TrackLoader,
	catalog ports.TrackCatalog,
	searchSource domain.SearchSource,
) *TrackLoaderService {
	if searchSource == "" {
		searchSource = domain.SourceYouTube
	}
	return &TrackLoaderService{
		loader:       loader,
		catalog:      catalog,
		searchSource: searchSource,
	}
}

// Resolve looks up the metadata for a query and returns a track whose stream
// is opened only when it is played. Failures are *domain.ResolutionError.
func (s *TrackLoaderService) Resolve(ctx context.Context, input ResolveInput) (*ResolveOutput, error) {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return nil, &domain.ResolutionError{Query: input.Query, Err: ErrEmptyQuery}
	}

	var (
		track *domain.Track
		err   error
	)
	switch {
	case query.Kind == domain.QueryKindSpotify && s.catalog != nil:
		track, err = s.resolveCatalog(ctx, query, input.RequestedBy)
	case query.Kind == domain.QueryKindSpotify, query.Kind == domain.QueryKindURL:
		track, err = s.resolveURL(ctx, query.Query, input.RequestedBy)
	default:
		track, err = s.resolveSearch(ctx, query.Query, "", input.RequestedBy)
	}
	if err != nil {
		return nil, &domain.ResolutionError{Query: query.Query, Err: err}
	}

	log.Debug().
		Str("query", query.Query).
		Stringer("kind", query.Kind).
		Str("track", track.Title).
		Str("track_id", track.ID).
		Msg("resolved track")

	return &ResolveOutput{Track: track}, nil
}

// resolveURL reads the metadata of a directly playable URL.
func (s *TrackLoaderService) resolveURL(ctx context.Context, url, requestedBy string) (*domain.Track, error) {
	info, err := loadFirst(ctx, s.loader, url)
	if err != nil {
		return nil, err
	}

	uri := info.URI
	if uri == "" {
		uri = url
	}

	return domain.NewTrack(
		info.Title,
		uri,
		domain.FormatDuration(info.Duration, info.IsStream),
		requestedBy,
		&directSource{loader: s.loader, uri: uri},
	), nil
}

// resolveSearch searches the primary catalog and takes the first result.
// A non-empty title replaces the title of the search hit.
func (s *TrackLoaderService) resolveSearch(
	ctx context.Context,
	text, title, requestedBy string,
) (*domain.Track, error) {
	term := domain.SearchTerm(s.searchSource, text)

	info, err := loadFirst(ctx, s.loader, term)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = info.Title
	}

	return domain.NewTrack(
		title,
		info.URI,
		domain.FormatDuration(info.Duration, info.IsStream),
		requestedBy,
		&searchSource{loader: s.loader, term: term, uri: info.URI},
	), nil
}

// resolveCatalog translates a Spotify track into a search of the primary catalog.
func (s *TrackLoaderService) resolveCatalog(
	ctx context.Context,
	query *domain.SearchQuery,
	requestedBy string,
) (*domain.Track, error) {
	ct, err := s.catalog.GetTrack(ctx, query.SpotifyID)
	if err != nil {
		return nil, errors.Wrap(err, "catalog lookup")
	}

	text := ct.SearchText()
	return s.resolveSearch(ctx, text, text, requestedBy)
}
