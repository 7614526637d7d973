// Package recorder manages microphone capture and clip playback as a
// small explicit state machine. The hardware handle is held only while
// recording and every acquired resource has a single release point, so
// arbitrary start/stop/reset sequences never leak a handle or a clip URL.
package recorder

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/adforge/core/internal/shared/errors"
	"github.com/adforge/core/internal/shared/logger"
)

// State is the recorder lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
)

// Recorder owns one capture session and one clip at a time.
type Recorder struct {
	device CaptureDevice
	urls   ClipURLAllocator
	player Player
	clock  Clock
	log    *logger.Logger

	mu       sync.Mutex
	state    State
	session  CaptureSession
	buf      bytes.Buffer
	clip     []byte
	clipMIME string
	clipURL  string
	elapsed  int
	lastErr  error

	stopTick chan struct{}
	drained  chan struct{}
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the elapsed-time tick source.
func WithClock(c Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithPlayer replaces the playback backend.
func WithPlayer(p Player) Option {
	return func(r *Recorder) { r.player = p }
}

// WithLogger attaches a logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// New creates an idle recorder over the given capture device and URL
// allocator.
func New(device CaptureDevice, urls ClipURLAllocator, opts ...Option) *Recorder {
	r := &Recorder{
		device: device,
		urls:   urls,
		player: NopPlayer{},
		clock:  RealClock{},
		log:    logger.Nop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the recorded duration in whole seconds.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Err returns the last session-level error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Clip returns the finalized clip and its MIME type. Empty until a
// recording has been stopped.
func (r *Recorder) Clip() ([]byte, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clip, r.clipMIME
}

// ClipURL returns the playable reference URL for the finalized clip.
func (r *Recorder) ClipURL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clipURL
}

// Start begins a capture session. Valid only from Idle. A permission or
// device failure is recorded as the session error and the recorder stays
// Idle with no hardware held.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return apperrors.Validation(fmt.Sprintf("cannot start recording from state %q", r.state))
	}

	session, err := r.device.Open(ctx)
	if err != nil {
		r.lastErr = apperrors.Resource("microphone unavailable", err)
		r.log.Warn("capture open failed", logger.Err(err))
		return r.lastErr
	}

	r.session = session
	r.buf.Reset()
	r.elapsed = 0
	r.lastErr = nil
	r.stopTick = make(chan struct{})
	r.drained = make(chan struct{})
	r.state = StateRecording

	go r.collect(session, r.drained)
	go r.tick(r.stopTick)
	return nil
}

// collect drains the session chunk channel into the clip buffer until the
// session closes it.
func (r *Recorder) collect(session CaptureSession, done chan<- struct{}) {
	defer close(done)
	for chunk := range session.Chunks() {
		r.mu.Lock()
		r.buf.Write(chunk)
		r.mu.Unlock()
	}
}

// tick advances the elapsed counter once per second until stopped.
func (r *Recorder) tick(stop <-chan struct{}) {
	t := r.clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C():
			r.mu.Lock()
			if r.state == StateRecording {
				r.elapsed++
			}
			r.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Stop finalizes the buffered chunks into a clip, derives its playback
// URL and releases the hardware. Valid only from Recording.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return apperrors.Validation(fmt.Sprintf("cannot stop recording from state %q", r.state))
	}
	r.state = StateStopped
	r.stopCaptureLocked()

	r.clip = append([]byte(nil), r.buf.Bytes()...)
	r.buf.Reset()
	urls := r.urls
	clip, mime := r.clip, r.clipMIME
	r.mu.Unlock()

	url, err := urls.Create(clip, mime)
	if err != nil {
		r.mu.Lock()
		r.lastErr = apperrors.Resource("clip url allocation failed", err)
		err = r.lastErr
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.clipURL = url
	r.mu.Unlock()
	return nil
}

// stopCaptureLocked closes the live session and stops the ticker. The
// hardware handle is released here and nowhere else. Callers hold r.mu;
// it is dropped while waiting for the chunk drain so collect can finish.
func (r *Recorder) stopCaptureLocked() {
	session := r.session
	if session == nil {
		return
	}
	r.session = nil
	r.clipMIME = session.MIMEType()
	close(r.stopTick)
	drained := r.drained

	r.mu.Unlock()
	closeErr := session.Close()
	<-drained
	r.mu.Lock()

	if closeErr != nil {
		r.log.Warn("capture session close failed", logger.Err(closeErr))
	}
}

// Play starts or resumes playback. From Stopped it replays the clip from
// the start; from Paused it resumes in place.
func (r *Recorder) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateStopped:
		if r.clipURL == "" {
			return apperrors.Validation("no recording to play")
		}
		if err := r.player.Play(r.clipURL); err != nil {
			return apperrors.Resource("playback failed", err)
		}
	case StatePaused:
		if err := r.player.Resume(); err != nil {
			return apperrors.Resource("playback resume failed", err)
		}
	default:
		return apperrors.Validation(fmt.Sprintf("cannot play from state %q", r.state))
	}
	r.state = StatePlaying
	return nil
}

// Pause suspends playback in place. Valid only from Playing.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePlaying {
		return apperrors.Validation(fmt.Sprintf("cannot pause from state %q", r.state))
	}
	if err := r.player.Pause(); err != nil {
		return apperrors.Resource("playback pause failed", err)
	}
	r.state = StatePaused
	return nil
}

// Reset returns the recorder to Idle from any state. An active capture is
// stopped first, playback halted, the clip URL revoked and all buffers,
// counters and error state cleared. Release is unconditional so repeated
// cycles never accumulate open handles.
func (r *Recorder) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		r.stopCaptureLocked()
	}
	if r.state == StatePlaying || r.state == StatePaused {
		if err := r.player.Stop(); err != nil {
			r.log.Warn("playback stop failed", logger.Err(err))
		}
	}
	if r.clipURL != "" {
		if err := r.urls.Revoke(r.clipURL); err != nil {
			r.log.Warn("clip url revoke failed", logger.Err(err))
		}
		r.clipURL = ""
	}

	r.buf.Reset()
	r.clip = nil
	r.clipMIME = ""
	r.elapsed = 0
	r.lastErr = nil
	r.state = StateIdle
	return nil
}
