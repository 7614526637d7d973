package factory

import (
	"context"
	"time"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/metrics"
	"github.com/adforge/core/internal/shared/logger"
)

// Text is the text analysis/generation provider factory.
type Text struct {
	*base[capability.TextProvider]
}

// NewText creates the text factory over a static provider registry.
func NewText(providers []capability.TextProvider, selected Selector, log *logger.Logger, m *metrics.Metrics) *Text {
	return &Text{base: newBase(capability.CapabilityText, providers, selected, log, m)}
}

// Resolve returns the provider that would service a request.
func (f *Text) Resolve(explicit ...capability.ProviderID) (capability.TextProvider, error) {
	return f.resolve(explicit...)
}

// Analyze extracts a structured business analysis from a free-text
// document through the resolved provider.
func (f *Text) Analyze(ctx context.Context, document string, explicit ...capability.ProviderID) (*capability.BusinessAnalysis, error) {
	p, err := f.resolve(explicit...)
	if err != nil {
		return nil, err
	}
	if err := gate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	analysis, err := p.AnalyzeBusiness(ctx, document)
	if f.metrics != nil {
		f.metrics.ObserveGeneration(string(capability.CapabilityText), string(p.ID()), start, err)
	}
	if err != nil {
		err = normalize(p, err)
		f.log.Warn("business analysis failed",
			logger.String("provider", string(p.ID())),
			logger.Err(err),
		)
		return nil, err
	}
	return analysis, nil
}

// Concepts derives up to n ad concepts from an analysis through the
// resolved provider.
func (f *Text) Concepts(ctx context.Context, analysis *capability.BusinessAnalysis, n int, explicit ...capability.ProviderID) ([]capability.AdConcept, error) {
	p, err := f.resolve(explicit...)
	if err != nil {
		return nil, err
	}
	if err := gate(p); err != nil {
		return nil, err
	}

	start := time.Now()
	concepts, err := p.GenerateConcepts(ctx, analysis, n)
	if f.metrics != nil {
		f.metrics.ObserveGeneration(string(capability.CapabilityText), string(p.ID()), start, err)
	}
	if err != nil {
		err = normalize(p, err)
		f.log.Warn("concept generation failed",
			logger.String("provider", string(p.ID())),
			logger.Err(err),
		)
		return nil, err
	}
	return concepts, nil
}
