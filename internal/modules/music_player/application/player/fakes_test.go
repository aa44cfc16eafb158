package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

const testGuild = snowflake.ID(1001)

// fakeSink is a test double for ports.AudioSink.
type fakeSink struct {
	mu       sync.Mutex
	played   chan *domain.Resource
	stops    int
	pauses   []bool
	destroys int
	playErr  error
	pauseErr error
}

func newFakeSink() *fakeSink {
	return &fakeSink{played: make(chan *domain.Resource, 32)}
}

func (s *fakeSink) Play(_ context.Context, _ snowflake.ID, res *domain.Resource) error {
	s.mu.Lock()
	err := s.playErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.played <- res
	return nil
}

func (s *fakeSink) Stop(context.Context, snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *fakeSink) SetPaused(_ context.Context, _ snowflake.ID, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseErr != nil {
		return s.pauseErr
	}
	s.pauses = append(s.pauses, paused)
	return nil
}

func (s *fakeSink) Destroy(context.Context, snowflake.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroys++
	return nil
}

func (s *fakeSink) counts() (stops, destroys int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops, s.destroys
}

// waitPlayed returns the next resource handed to the sink.
func waitPlayed(t *testing.T, s *fakeSink) *domain.Resource {
	t.Helper()
	select {
	case res := <-s.played:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a track to be played")
		return nil
	}
}

// assertNothingPlayed fails if the sink receives a resource within a short window.
func assertNothingPlayed(t *testing.T, s *fakeSink) {
	t.Helper()
	select {
	case res := <-s.played:
		t.Fatalf("unexpected play of %q", res.Title)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeTransport is a test double for ports.VoiceTransport. Like a Discord
// voice session it sits in at most one channel per guild; joining while
// connected moves it.
type fakeTransport struct {
	mu       sync.Mutex
	channels map[snowflake.ID]snowflake.ID
	joins    int
	leaves   int
	joinErr  error
	block    bool
	joined   []snowflake.ID
}

func (f *fakeTransport) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	f.mu.Lock()
	f.joins++
	block, joinErr := f.block, f.joinErr
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if joinErr != nil {
		return joinErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channels == nil {
		f.channels = make(map[snowflake.ID]snowflake.ID)
	}
	f.channels[guildID] = channelID
	f.joined = append(f.joined, channelID)
	return nil
}

func (f *fakeTransport) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	delete(f.channels, guildID)
	return nil
}

func (f *fakeTransport) liveConnections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels)
}

func (f *fakeTransport) stats() (joins, leaves int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joins, f.leaves
}

// fakeSource is a test double for domain.StreamSource.
type fakeSource struct {
	title string
	err   error
}

func (s *fakeSource) Materialize(_ context.Context, volume int) (*domain.Resource, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Resource{Encoded: "enc-" + s.title, Title: s.title, Volume: volume}, nil
}

func newTestTrack(title string) *domain.Track {
	return domain.NewTrack(title, "https://example.com/"+title, "3:00", "tester", &fakeSource{title: title})
}

func newFailingTrack(title string) *domain.Track {
	return domain.NewTrack(title, "", "", "tester", &fakeSource{title: title, err: errors.New("stream unavailable")})
}

// recordingObserver is a test double for ports.PlaybackObserver.
type recordingObserver struct {
	mu      sync.Mutex
	started []string
	failed  []string
	errs    []error
}

func (o *recordingObserver) TrackStarted(_, _ snowflake.ID, track *domain.Track) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, track.Title)
}

func (o *recordingObserver) TrackFailed(_, _ snowflake.ID, track *domain.Track, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, track.Title)
	o.errs = append(o.errs, err)
}

func (o *recordingObserver) failedTitles() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.failed...)
}

func (o *recordingObserver) startedTitles() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.started...)
}
