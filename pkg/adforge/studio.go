// Package adforge is the embedding surface of the ad creation engine. A
// Studio wires settings, provider registries, capability factories, the
// ad-copy pipeline, the audio recorder and the connectivity monitor into
// one isolated instance; nothing in the package is process-global, so a
// host can run several studios side by side.
package adforge

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adforge/core/internal/adcopy"
	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/factory"
	"github.com/adforge/core/internal/health"
	"github.com/adforge/core/internal/metrics"
	"github.com/adforge/core/internal/poll"
	"github.com/adforge/core/internal/provider"
	"github.com/adforge/core/internal/provider/anthropic"
	"github.com/adforge/core/internal/provider/elevenlabs"
	"github.com/adforge/core/internal/provider/gemini"
	"github.com/adforge/core/internal/provider/heygen"
	"github.com/adforge/core/internal/provider/openai"
	"github.com/adforge/core/internal/provider/runware"
	"github.com/adforge/core/internal/provider/runway"
	"github.com/adforge/core/internal/recorder"
	"github.com/adforge/core/internal/settings"
	"github.com/adforge/core/internal/shared/config"
	"github.com/adforge/core/internal/shared/httpclient"
	"github.com/adforge/core/internal/shared/logger"
)

// Studio is one fully wired engine instance.
type Studio struct {
	cfg *config.Config
	log *logger.Logger

	store    *settings.Store
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	text  *factory.Text
	image *factory.Image
	video *factory.Video
	stt   *factory.SpeechToText
	tts   *factory.TextToSpeech

	adcopy   *adcopy.Service
	recorder *recorder.Recorder
	health   *health.Monitor

	unsubscribe func()
}

type options struct {
	cfg        *config.Config
	log        *logger.Logger
	blob       settings.Blob
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	device     recorder.CaptureDevice
	player     recorder.Player
	urls       recorder.ClipURLAllocator
	clock      poll.Clock
}

// Option configures a Studio.
type Option func(*options)

// WithConfig supplies a prebuilt configuration instead of loading one.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger supplies the logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithSettingsBlob replaces the settings persistence backend, e.g. an
// in-memory blob for tests.
func WithSettingsBlob(b settings.Blob) Option {
	return func(o *options) { o.blob = b }
}

// WithMetricsRegisterer registers metrics on a caller-owned registry.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithCaptureDevice supplies the microphone backend for the recorder.
func WithCaptureDevice(d recorder.CaptureDevice) Option {
	return func(o *options) { o.device = d }
}

// WithPlayer supplies the clip playback backend.
func WithPlayer(p recorder.Player) Option {
	return func(o *options) { o.player = p }
}

// WithClipURLAllocator supplies the clip URL backend.
func WithClipURLAllocator(a recorder.ClipURLAllocator) Option {
	return func(o *options) { o.urls = a }
}

// WithPollClock substitutes the poll clock, for tests.
func WithPollClock(c poll.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New builds a Studio. Configuration falls back to defaults when no file
// is present; every backend not overridden by an option gets a working
// in-process default.
func New(opts ...Option) (*Studio, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log := o.log
	if log == nil {
		log = logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	blob := o.blob
	if blob == nil {
		blob = settings.NewFileBlob(cfg.Settings.Path)
	}
	store := settings.NewStore(blob, log)

	registerer := o.registerer
	var gatherer prometheus.Gatherer
	if registerer == nil {
		reg := prometheus.NewRegistry()
		registerer = reg
		gatherer = reg
	}
	m := metrics.New("adforge", registerer)

	httpClient := httpclient.New(cfg.HTTPClient)

	pollOpts := func() []poll.Option {
		out := []poll.Option{
			poll.WithLogger(log),
			poll.WithAttemptHook(func(p capability.ProviderID, _ int) {
				m.ObservePollAttempt(string(p))
			}),
		}
		if o.clock != nil {
			out = append(out, poll.WithClock(o.clock))
		}
		return out
	}
	videoPoller := poll.New(cfg.Poll.VideoInterval, cfg.Poll.MaxAttempts, pollOpts()...)

	// Working providers. The store is the credential source, consulted on
	// every call.
	oai := openai.New(httpClient, store)
	claude := anthropic.New(httpClient, store)
	gmi := gemini.New(httpClient, store)
	rwr := runware.New(httpClient, store)
	rwy := runway.New(httpClient, store, videoPoller)
	hey := heygen.New(httpClient, store, videoPoller)
	eleven := elevenlabs.New(httpClient, store)
	whisper := openai.NewWhisper(httpClient, store)

	// Declared-but-unimplemented providers stay visible in every listing.
	midjourney := provider.NewStub(capability.ProviderMidjourney, "Midjourney", store)
	replicate := provider.NewStub(capability.ProviderReplicate, "Replicate", store)
	runwayImage := provider.NewStub(capability.ProviderRunway, "Runway", store)
	synthesia := provider.NewStub(capability.ProviderSynthesia, "Synthesia", store)
	luma := provider.NewStub(capability.ProviderLuma, "Luma Dream Machine", store)
	pika := provider.NewStub(capability.ProviderPika, "Pika", store)

	textFactory := factory.NewText(
		[]capability.TextProvider{oai, claude, gmi},
		selector(store, capability.CapabilityText), log, m,
	)
	imageFactory := factory.NewImage(
		[]capability.ImageProvider{oai, rwr, runwayImage, midjourney, replicate},
		selector(store, capability.CapabilityImage), log, m,
	)
	videoFactory := factory.NewVideo(
		[]capability.VideoProvider{hey, synthesia, rwy, luma, pika},
		selector(store, capability.CapabilityVideo), log, m,
	)
	sttFactory := factory.NewSpeechToText(
		[]capability.SpeechToTextProvider{whisper}, capability.ProviderWhisper, log, m,
	)
	ttsFactory := factory.NewTextToSpeech(
		[]capability.TextToSpeechProvider{eleven}, capability.ProviderElevenLabs, log, m,
	)

	copySvc := adcopy.NewService(textFactory, imageFactory, log)

	device := o.device
	if device == nil {
		device = recorder.UnavailableDevice{}
	}
	urls := o.urls
	if urls == nil {
		urls = recorder.NewMemoryURLAllocator()
	}
	recOpts := []recorder.Option{recorder.WithLogger(log)}
	if o.player != nil {
		recOpts = append(recOpts, recorder.WithPlayer(o.player))
	}
	rec := recorder.New(device, urls, recOpts...)

	monitor := health.NewMonitor(healthTargets(
		oai, claude, gmi, rwr, rwy, hey, eleven, whisper,
	), cfg.Health, log)

	s := &Studio{
		cfg:      cfg,
		log:      log,
		store:    store,
		metrics:  m,
		gatherer: gatherer,
		text:     textFactory,
		image:    imageFactory,
		video:    videoFactory,
		stt:      sttFactory,
		tts:      ttsFactory,
		adcopy:   copySvc,
		recorder: rec,
		health:   monitor,
	}

	m.SetConfiguredProviders(len(store.Snapshot().Credentials))
	s.unsubscribe = store.Subscribe(func(snap settings.Snapshot) {
		m.SetConfiguredProviders(len(snap.Credentials))
	})

	return s, nil
}

// selector binds a capability's default provider to the settings store.
func selector(store *settings.Store, cap capability.Capability) factory.Selector {
	return func() (capability.ProviderID, bool) {
		return store.Selected(cap)
	}
}

// healthTargets collects the providers that expose a connectivity test.
func healthTargets(providers ...capability.Provider) []health.Target {
	var out []health.Target
	for _, p := range providers {
		if tester, ok := p.(capability.ConnectivityTester); ok {
			out = append(out, health.Target{Provider: p, Tester: tester})
		}
	}
	return out
}

// Settings returns the settings store.
func (s *Studio) Settings() *settings.Store { return s.store }

// Text returns the text provider factory.
func (s *Studio) Text() *factory.Text { return s.text }

// Images returns the image provider factory.
func (s *Studio) Images() *factory.Image { return s.image }

// Videos returns the video provider factory.
func (s *Studio) Videos() *factory.Video { return s.video }

// SpeechToText returns the transcription factory.
func (s *Studio) SpeechToText() *factory.SpeechToText { return s.stt }

// TextToSpeech returns the narration factory.
func (s *Studio) TextToSpeech() *factory.TextToSpeech { return s.tts }

// AdCopy returns the ad-copy pipeline.
func (s *Studio) AdCopy() *adcopy.Service { return s.adcopy }

// Recorder returns the audio recorder.
func (s *Studio) Recorder() *recorder.Recorder { return s.recorder }

// Health returns the connectivity monitor.
func (s *Studio) Health() *health.Monitor { return s.health }

// Gatherer exposes the studio-local metrics registry. Nil when metrics
// were registered on a caller-owned registry.
func (s *Studio) Gatherer() prometheus.Gatherer { return s.gatherer }

// Catalog lists every registered provider per capability.
func (s *Studio) Catalog() map[capability.Capability][]factory.Info {
	return map[capability.Capability][]factory.Info{
		capability.CapabilityText:         s.text.List(),
		capability.CapabilityImage:        s.image.List(),
		capability.CapabilityVideo:        s.video.List(),
		capability.CapabilitySpeechToText: s.stt.List(),
		capability.CapabilityTextToSpeech: s.tts.List(),
	}
}

// Close releases the studio's subscriptions and resets the recorder so
// no hardware or clip URLs stay held.
func (s *Studio) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	return s.recorder.Reset()
}
