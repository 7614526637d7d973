package factory

import (
	"context"
	"time"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/metrics"
	"github.com/adforge/core/internal/shared/logger"
)

// Image is the image-generation provider factory.
type Image struct {
	*base[capability.ImageProvider]
}

// NewImage creates the image factory over a static provider registry.
func NewImage(providers []capability.ImageProvider, selected Selector, log *logger.Logger, m *metrics.Metrics) *Image {
	return &Image{base: newBase(capability.CapabilityImage, providers, selected, log, m)}
}

// Resolve returns the provider that would service a request.
func (f *Image) Resolve(explicit ...capability.ProviderID) (capability.ImageProvider, error) {
	return f.resolve(explicit...)
}

// Generate renders an image through the resolved provider. The result's
// provider field names the provider that actually produced the asset.
func (f *Image) Generate(ctx context.Context, req capability.ImageRequest, explicit ...capability.ProviderID) (*capability.Result, error) {
	p, err := f.resolve(explicit...)
	if err != nil {
		return nil, err
	}
	if err := gate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := p.GenerateImage(ctx, req)
	if f.metrics != nil {
		f.metrics.ObserveGeneration(string(capability.CapabilityImage), string(p.ID()), start, err)
	}
	if err != nil {
		err = normalize(p, err)
		f.log.Warn("image generation failed",
			logger.String("provider", string(p.ID())),
			logger.Err(err),
		)
		return nil, err
	}

	res.Provider = p.ID()
	return res, nil
}
