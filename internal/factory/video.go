package factory

import (
	"context"
	"time"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/metrics"
	"github.com/adforge/core/internal/shared/logger"
)

// Video is the video-generation provider factory.
type Video struct {
	*base[capability.VideoProvider]
}

// NewVideo creates the video factory over a static provider registry.
func NewVideo(providers []capability.VideoProvider, selected Selector, log *logger.Logger, m *metrics.Metrics) *Video {
	return &Video{base: newBase(capability.CapabilityVideo, providers, selected, log, m)}
}

// Resolve returns the provider that would service a request.
func (f *Video) Resolve(explicit ...capability.ProviderID) (capability.VideoProvider, error) {
	return f.resolve(explicit...)
}

// Generate renders a video through the resolved provider. Providers with
// job-based APIs block through their internal poll loop, so this can take
// minutes; pass a cancellable context to give up early.
func (f *Video) Generate(ctx context.Context, req capability.VideoRequest, explicit ...capability.ProviderID) (*capability.Result, error) {
	p, err := f.resolve(explicit...)
	if err != nil {
		return nil, err
	}
	if err := gate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := p.GenerateVideo(ctx, req)
	if f.metrics != nil {
		f.metrics.ObserveGeneration(string(capability.CapabilityVideo), string(p.ID()), start, err)
	}
	if err != nil {
		err = normalize(p, err)
		f.log.Warn("video generation failed",
			logger.String("provider", string(p.ID())),
			logger.Err(err),
		)
		return nil, err
	}

	res.Provider = p.ID()
	return res, nil
}
