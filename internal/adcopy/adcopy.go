// Package adcopy turns a business description into ad creative: a
// structured analysis, a set of concepts and, per concept, a generated
// visual. Batch generation runs the per-concept work concurrently and
// isolates failures to their own slot.
package adcopy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/factory"
	"github.com/adforge/core/internal/shared/logger"
)

// Variant is one generated ad: a concept plus its rendered visual. A
// variant with a non-nil Err carries no visual; the slot failed but the
// batch continued.
type Variant struct {
	ID        string
	Index     int
	Concept   capability.AdConcept
	Image     *capability.Result
	Provider  capability.ProviderID
	Err       error
	CreatedAt time.Time
}

// Batch is the outcome of one batch generation run.
type Batch struct {
	Analysis *capability.BusinessAnalysis
	Variants []Variant
}

// Failed returns the variants whose slot failed.
func (b *Batch) Failed() []Variant {
	var out []Variant
	for _, v := range b.Variants {
		if v.Err != nil {
			out = append(out, v)
		}
	}
	return out
}

// Service orchestrates analysis, concept generation and visual rendering
// across the capability factories.
type Service struct {
	text   *factory.Text
	images *factory.Image
	log    *logger.Logger

	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithConcurrency caps the number of in-flight image generations during a
// batch run. Zero or negative means unbounded.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// NewService creates the ad copy service.
func NewService(text *factory.Text, images *factory.Image, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		text:        text,
		images:      images,
		log:         log,
		concurrency: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze extracts a structured business analysis from a free-text
// document.
func (s *Service) Analyze(ctx context.Context, document string) (*capability.BusinessAnalysis, error) {
	return s.text.Analyze(ctx, document)
}

// Concepts derives up to n ad concepts from an analysis.
func (s *Service) Concepts(ctx context.Context, analysis *capability.BusinessAnalysis, n int) ([]capability.AdConcept, error) {
	return s.text.Concepts(ctx, analysis, n)
}

// GenerateBatch runs the full pipeline: analyze the document, derive n
// concepts, then render one visual per concept concurrently. A failed
// slot records its error on the variant and never aborts its siblings;
// the returned error is non-nil only when the pipeline cannot produce
// any variants at all.
func (s *Service) GenerateBatch(ctx context.Context, document string, n int) (*Batch, error) {
	analysis, err := s.Analyze(ctx, document)
	if err != nil {
		return nil, err
	}

	concepts, err := s.Concepts(ctx, analysis, n)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		Analysis: analysis,
		Variants: make([]Variant, len(concepts)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, concept := range concepts {
		batch.Variants[i] = Variant{
			ID:        uuid.NewString(),
			Index:     i,
			Concept:   concept,
			CreatedAt: time.Now(),
		}

		g.Go(func() error {
			res, genErr := s.images.Generate(gctx, capability.ImageRequest{
				Prompt:      fmt.Sprintf("%s. %s", concept.VisualConcept, analysis.ValueProposition),
				OverlayText: concept.Headline,
			})
			if genErr != nil {
				s.log.Warn("variant generation failed",
					logger.Int("slot", i),
					logger.Err(genErr),
				)
				batch.Variants[i].Err = genErr
				return nil
			}
			batch.Variants[i].Image = res
			batch.Variants[i].Provider = res.Provider
			return nil
		})
	}

	// Slot goroutines always return nil; Wait only reports ctx errors.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batch, nil
}

// Regenerate re-renders the visual for a single variant, optionally with
// revised prompt text. It never touches the other variants of a batch.
func (s *Service) Regenerate(ctx context.Context, v *Variant, revisedPrompt string) error {
	prompt := revisedPrompt
	if prompt == "" {
		prompt = v.Concept.VisualConcept
	}

	res, err := s.images.Generate(ctx, capability.ImageRequest{
		Prompt:      prompt,
		OverlayText: v.Concept.Headline,
	})
	if err != nil {
		v.Err = err
		return err
	}
	v.Image = res
	v.Provider = res.Provider
	v.Err = nil
	return nil
}
