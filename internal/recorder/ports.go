package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/adforge/core/internal/shared/errors"
)

// CaptureSession is a live microphone capture. Chunks delivers buffered
// audio until the session is closed; Close releases the underlying
// hardware handle and closes the chunk channel.
type CaptureSession interface {
	Chunks() <-chan []byte
	MIMEType() string
	Close() error
}

// CaptureDevice opens capture sessions. Open may fail with a permission
// or device error; no hardware is held after a failed Open.
type CaptureDevice interface {
	Open(ctx context.Context) (CaptureSession, error)
}

// ClipURLAllocator turns a finished clip into a playable reference URL.
// Every Create has a matching Revoke; an unrevoked URL leaks the backing
// resource.
type ClipURLAllocator interface {
	Create(data []byte, mimeType string) (string, error)
	Revoke(url string) error
}

// Player drives clip playback. Play starts from the beginning, Resume
// continues from the pause point.
type Player interface {
	Play(url string) error
	Pause() error
	Resume() error
	Stop() error
}

// Ticker is the elapsed-time tick source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers, replaceable in tests.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealClock ticks on wall time.
type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// UnavailableDevice is the device used when no capture backend is wired.
// Open always fails, which the state machine reports as a session error
// while staying idle.
type UnavailableDevice struct{}

func (UnavailableDevice) Open(context.Context) (CaptureSession, error) {
	return nil, apperrors.Resource("no capture device configured", nil)
}

// NopPlayer accepts every playback call without producing audio, for
// headless embedding.
type NopPlayer struct{}

func (NopPlayer) Play(string) error { return nil }
func (NopPlayer) Pause() error      { return nil }
func (NopPlayer) Resume() error     { return nil }
func (NopPlayer) Stop() error       { return nil }

// MemoryURLAllocator backs clip URLs with an in-process map. It is the
// default allocator and doubles as the test implementation.
type MemoryURLAllocator struct {
	mu    sync.Mutex
	clips map[string][]byte
}

// NewMemoryURLAllocator creates an empty allocator.
func NewMemoryURLAllocator() *MemoryURLAllocator {
	return &MemoryURLAllocator{clips: make(map[string][]byte)}
}

// Create stores the clip and returns a unique mem URL for it.
func (a *MemoryURLAllocator) Create(data []byte, mimeType string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	url := "mem://clip/" + uuid.NewString()
	a.clips[url] = data
	return url, nil
}

// Revoke frees the clip behind the URL. Revoking an unknown URL is an
// error so leaks show up in tests.
func (a *MemoryURLAllocator) Revoke(url string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.clips[url]; !ok {
		return apperrors.Resource("unknown clip url: "+url, nil)
	}
	delete(a.clips, url)
	return nil
}

// Get returns the clip behind a URL.
func (a *MemoryURLAllocator) Get(url string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.clips[url]
	return data, ok
}

// Len returns the number of live URLs.
func (a *MemoryURLAllocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.clips)
}
