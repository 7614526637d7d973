package factory

import (
	"context"
	"time"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/metrics"
	"github.com/adforge/core/internal/shared/logger"
)

// SpeechToText is the transcription provider factory. The settings record
// carries no speech selection, so the default provider is fixed at
// construction and only an explicit override changes it.
type SpeechToText struct {
	*base[capability.SpeechToTextProvider]
}

// NewSpeechToText creates the transcription factory.
func NewSpeechToText(providers []capability.SpeechToTextProvider, defaultID capability.ProviderID, log *logger.Logger, m *metrics.Metrics) *SpeechToText {
	selected := func() (capability.ProviderID, bool) { return defaultID, true }
	return &SpeechToText{base: newBase(capability.CapabilitySpeechToText, providers, selected, log, m)}
}

// Resolve returns the provider that would service a request.
func (f *SpeechToText) Resolve(explicit ...capability.ProviderID) (capability.SpeechToTextProvider, error) {
	return f.resolve(explicit...)
}

// Transcribe converts captured audio to text through the resolved provider.
func (f *SpeechToText) Transcribe(ctx context.Context, req capability.TranscribeRequest, explicit ...capability.ProviderID) (*capability.Transcript, error) {
	p, err := f.resolve(explicit...)
	if err != nil {
		return nil, err
	}
	if err := gate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	transcript, err := p.Transcribe(ctx, req)
	if f.metrics != nil {
		f.metrics.ObserveGeneration(string(capability.CapabilitySpeechToText), string(p.ID()), start, err)
	}
	if err != nil {
		err = normalize(p, err)
		f.log.Warn("transcription failed",
			logger.String("provider", string(p.ID())),
			logger.Err(err),
		)
		return nil, err
	}

	transcript.Provider = p.ID()
	return transcript, nil
}

// TextToSpeech is the narration synthesis provider factory.
type TextToSpeech struct {
	*base[capability.TextToSpeechProvider]
}

// NewTextToSpeech creates the synthesis factory.
func NewTextToSpeech(providers []capability.TextToSpeechProvider, defaultID capability.ProviderID, log *logger.Logger, m *metrics.Metrics) *TextToSpeech {
	selected := func() (capability.ProviderID, bool) { return defaultID, true }
	return &TextToSpeech{base: newBase(capability.CapabilityTextToSpeech, providers, selected, log, m)}
}

// Resolve returns the provider that would service a request.
func (f *TextToSpeech) Resolve(explicit ...capability.ProviderID) (capability.TextToSpeechProvider, error) {
	return f.resolve(explicit...)
}

// Synthesize renders narration audio through the resolved provider.
func (f *TextToSpeech) Synthesize(ctx context.Context, req capability.SpeechRequest, explicit ...capability.ProviderID) (*capability.AudioClip, error) {
	p, err := f.resolve(explicit...)
	if err != nil {
		return nil, err
	}
	if err := gate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	clip, err := p.Synthesize(ctx, req)
	if f.metrics != nil {
		f.metrics.ObserveGeneration(string(capability.CapabilityTextToSpeech), string(p.ID()), start, err)
	}
	if err != nil {
		err = normalize(p, err)
		f.log.Warn("speech synthesis failed",
			logger.String("provider", string(p.ID())),
			logger.Err(err),
		)
		return nil, err
	}

	clip.Provider = p.ID()
	return clip, nil
}
