package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/player"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// mockLoader is a test double for ports.TrackLoader keyed by query.
type mockLoader struct {
	mu      sync.Mutex
	results map[string]*ports.LoadResult
	errs    map[string]error
	queries []string
}

func newMockLoader() *mockLoader {
	return &mockLoader{
		results: make(map[string]*ports.LoadResult),
		errs:    make(map[string]error),
	}
}

func (m *mockLoader) add(query string, tracks ...*ports.TrackInfo) {
	m.results[query] = &ports.LoadResult{Type: ports.LoadTypeSearch, Tracks: tracks}
}

func (m *mockLoader) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if err := m.errs[query]; err != nil {
		return nil, err
	}
	if r, ok := m.results[query]; ok {
		return r, nil
	}
	return &ports.LoadResult{Type: ports.LoadTypeEmpty}, nil
}

func (m *mockLoader) loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// mockCatalog is a test double for ports.TrackCatalog.
type mockCatalog struct {
	tracks map[string]*ports.CatalogTrack
	err    error
}

func (m *mockCatalog) GetTrack(_ context.Context, id string) (*ports.CatalogTrack, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.tracks[id]
	if !ok {
		return nil, errors.Newf("track %s not found", id)
	}
	return t, nil
}

// mockVoiceState is a test double for ports.VoiceStateProvider.
type mockVoiceState struct {
	channels map[snowflake.ID]snowflake.ID
	err      error
}

func (m *mockVoiceState) GetUserVoiceChannel(_, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

// mockSink is a test double for ports.AudioSink.
type mockSink struct {
	played chan *domain.Resource
}

func newMockSink() *mockSink {
	return &mockSink{played: make(chan *domain.Resource, 16)}
}

func (m *mockSink) Play(_ context.Context, _ snowflake.ID, res *domain.Resource) error {
	m.played <- res
	return nil
}
func (m *mockSink) Stop(context.Context, snowflake.ID) error            { return nil }
func (m *mockSink) SetPaused(context.Context, snowflake.ID, bool) error { return nil }
func (m *mockSink) Destroy(context.Context, snowflake.ID) error         { return nil }

func (m *mockSink) waitPlayed(t *testing.T) *domain.Resource {
	t.Helper()
	select {
	case res := <-m.played:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback")
		return nil
	}
}

// mockTransport is a test double for ports.VoiceTransport.
type mockTransport struct {
	mu      sync.Mutex
	joinErr error
	joins   []snowflake.ID
	leaves  int
}

func (m *mockTransport) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins = append(m.joins, channelID)
	return m.joinErr
}

func (m *mockTransport) LeaveChannel(context.Context, snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves++
	return nil
}

type fixture struct {
	registry  *player.Registry
	sink      *mockSink
	transport *mockTransport
}

func newFixture() *fixture {
	f := &fixture{sink: newMockSink(), transport: &mockTransport{}}
	f.registry = player.NewRegistry(f.sink, f.transport, nil, player.Options{})
	return f
}

func trackInfo(title, uri string, d time.Duration) *ports.TrackInfo {
	return &ports.TrackInfo{
		Identifier: title,
		Encoded:    "enc-" + title,
		Title:      title,
		Duration:   d,
		URI:        uri,
	}
}

// staticSource is a domain.StreamSource that never does I/O.
type staticSource struct{ title string }

func (s staticSource) Materialize(_ context.Context, volume int) (*domain.Resource, error) {
	return &domain.Resource{Encoded: "enc-" + s.title, Title: s.title, Volume: volume}, nil
}

func newTrack(title string) *domain.Track {
	return domain.NewTrack(title, "", "", "tester", staticSource{title: title})
}
