package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adforge/core/internal/shared/errors"
)

// fakeSession is an in-memory capture session that tracks whether its
// hardware handle was released.
type fakeSession struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{ch: make(chan []byte, 16)}
}

func (s *fakeSession) Chunks() <-chan []byte { return s.ch }
func (s *fakeSession) MIMEType() string      { return "audio/webm" }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *fakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) push(chunk []byte) { s.ch <- chunk }

// fakeDevice hands out fakeSessions and remembers every one it opened.
type fakeDevice struct {
	err      error
	sessions []*fakeSession
}

func (d *fakeDevice) Open(context.Context) (CaptureSession, error) {
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeSession()
	d.sessions = append(d.sessions, s)
	return s, nil
}

// fakePlayer records the playback calls it receives.
type fakePlayer struct {
	plays   []string
	pauses  int
	resumes int
	stops   int
}

func (p *fakePlayer) Play(url string) error { p.plays = append(p.plays, url); return nil }
func (p *fakePlayer) Pause() error          { p.pauses++; return nil }
func (p *fakePlayer) Resume() error         { p.resumes++; return nil }
func (p *fakePlayer) Stop() error           { p.stops++; return nil }

// fakeTicker is driven manually by the test.
type fakeTicker struct{ ch chan time.Time }

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

type fakeTickerClock struct{ ticker *fakeTicker }

func (c *fakeTickerClock) NewTicker(time.Duration) Ticker { return c.ticker }

func newTestRecorder(t *testing.T) (*Recorder, *fakeDevice, *MemoryURLAllocator, *fakePlayer) {
	t.Helper()
	device := &fakeDevice{}
	urls := NewMemoryURLAllocator()
	player := &fakePlayer{}
	rec := New(device, urls, WithPlayer(player))
	return rec, device, urls, player
}

func TestRecorderStartStop(t *testing.T) {
	rec, device, urls, _ := newTestRecorder(t)

	require.NoError(t, rec.Start(context.Background()))
	assert.Equal(t, StateRecording, rec.State())

	session := device.sessions[0]
	session.push([]byte("chunk-1"))
	session.push([]byte("chunk-2"))

	require.NoError(t, rec.Stop())
	assert.Equal(t, StateStopped, rec.State())
	assert.True(t, session.Closed(), "hardware released on stop")

	clip, mime := rec.Clip()
	assert.Equal(t, []byte("chunk-1chunk-2"), clip)
	assert.Equal(t, "audio/webm", mime)

	url := rec.ClipURL()
	require.NotEmpty(t, url)
	stored, ok := urls.Get(url)
	require.True(t, ok)
	assert.Equal(t, clip, stored)
}

func TestRecorderPermissionDeniedStaysIdle(t *testing.T) {
	rec, device, _, _ := newTestRecorder(t)
	device.err = errors.New("permission denied")

	err := rec.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrResource))

	assert.Equal(t, StateIdle, rec.State())
	require.Error(t, rec.Err())
	assert.Contains(t, rec.Err().Error(), "microphone unavailable")
}

func TestRecorderInvalidTransitions(t *testing.T) {
	rec, device, _, _ := newTestRecorder(t)

	assert.Error(t, rec.Stop(), "stop without recording")
	assert.Error(t, rec.Play(), "play without a clip")
	assert.Error(t, rec.Pause(), "pause without playback")

	require.NoError(t, rec.Start(context.Background()))
	assert.Error(t, rec.Start(context.Background()), "start while recording")
	require.NoError(t, rec.Stop())
	assert.Error(t, rec.Stop(), "double stop")

	assert.Len(t, device.sessions, 1)
}

func TestRecorderPlaybackSemantics(t *testing.T) {
	rec, device, _, player := newTestRecorder(t)

	require.NoError(t, rec.Start(context.Background()))
	device.sessions[0].push([]byte("audio"))
	require.NoError(t, rec.Stop())

	// Fresh play starts from the beginning.
	require.NoError(t, rec.Play())
	assert.Equal(t, StatePlaying, rec.State())
	require.Len(t, player.plays, 1)
	assert.Equal(t, rec.ClipURL(), player.plays[0])

	// Pause then play resumes in place, no replay.
	require.NoError(t, rec.Pause())
	assert.Equal(t, StatePaused, rec.State())
	require.NoError(t, rec.Play())
	assert.Equal(t, 1, player.resumes)
	assert.Len(t, player.plays, 1)
}

func TestRecorderResetFromEveryState(t *testing.T) {
	ctx := context.Background()

	t.Run("From Idle", func(t *testing.T) {
		rec, _, _, _ := newTestRecorder(t)
		require.NoError(t, rec.Reset())
		assert.Equal(t, StateIdle, rec.State())
	})

	t.Run("From Recording stops the session first", func(t *testing.T) {
		rec, device, urls, _ := newTestRecorder(t)
		require.NoError(t, rec.Start(ctx))
		require.NoError(t, rec.Reset())

		assert.Equal(t, StateIdle, rec.State())
		assert.True(t, device.sessions[0].Closed())
		assert.Zero(t, urls.Len())
	})

	t.Run("From Playing revokes the clip URL and halts playback", func(t *testing.T) {
		rec, device, urls, player := newTestRecorder(t)
		require.NoError(t, rec.Start(ctx))
		device.sessions[0].push([]byte("audio"))
		require.NoError(t, rec.Stop())
		require.NoError(t, rec.Play())

		require.NoError(t, rec.Reset())
		assert.Equal(t, StateIdle, rec.State())
		assert.Equal(t, 1, player.stops)
		assert.Zero(t, urls.Len(), "clip url revoked on reset")
		assert.Empty(t, rec.ClipURL())
		clip, _ := rec.Clip()
		assert.Nil(t, clip)
	})

	t.Run("Clears error state", func(t *testing.T) {
		rec, device, _, _ := newTestRecorder(t)
		device.err = errors.New("permission denied")
		_ = rec.Start(ctx)
		require.Error(t, rec.Err())

		require.NoError(t, rec.Reset())
		assert.NoError(t, rec.Err())
	})
}

func TestRecorderResourceSafetyOverCycles(t *testing.T) {
	rec, device, urls, _ := newTestRecorder(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, rec.Start(ctx))
		device.sessions[len(device.sessions)-1].push([]byte("audio"))
		require.NoError(t, rec.Stop())
		require.NoError(t, rec.Reset())
	}
	require.NoError(t, rec.Start(ctx))
	require.NoError(t, rec.Reset())

	for i, s := range device.sessions {
		assert.True(t, s.Closed(), "session %d still holds hardware", i)
	}
	assert.Zero(t, urls.Len(), "no clip urls leaked")
	assert.Equal(t, StateIdle, rec.State())
}

func TestRecorderElapsedTicks(t *testing.T) {
	device := &fakeDevice{}
	ticker := &fakeTicker{ch: make(chan time.Time)}
	rec := New(device, NewMemoryURLAllocator(), WithClock(&fakeTickerClock{ticker: ticker}))

	require.NoError(t, rec.Start(context.Background()))
	for i := 0; i < 3; i++ {
		ticker.ch <- time.Now()
	}

	// The tick goroutine holds the lock per tick; once the third send is
	// accepted the previous two are already counted.
	assert.Eventually(t, func() bool { return rec.Elapsed() == 3 }, time.Second, time.Millisecond)

	require.NoError(t, rec.Stop())
	assert.Equal(t, 3, rec.Elapsed())

	require.NoError(t, rec.Reset())
	assert.Zero(t, rec.Elapsed())
}
