// Package factory resolves "which concrete provider services this request"
// and enforces the configuration contract uniformly, so every call site
// behaves identically regardless of capability. Registries are static:
// adding a provider means adding one registration, not touching call sites.
package factory

import (
	"errors"
	"fmt"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/metrics"
	apperrors "github.com/adforge/core/internal/shared/errors"
	"github.com/adforge/core/internal/shared/logger"
)

// Info describes one registered provider for introspection.
type Info struct {
	ID         capability.ProviderID `json:"id"`
	Name       string                `json:"name"`
	Configured bool                  `json:"configured"`
	Stub       bool                  `json:"stub"`
}

// Selector resolves the default provider for a capability, normally backed
// by the settings store.
type Selector func() (capability.ProviderID, bool)

// base carries the resolution and gating logic shared by every capability
// factory.
type base[P capability.Provider] struct {
	domain    capability.Capability
	providers map[capability.ProviderID]P
	order     []capability.ProviderID
	selected  Selector
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func newBase[P capability.Provider](domain capability.Capability, providers []P, selected Selector, log *logger.Logger, m *metrics.Metrics) *base[P] {
	if log == nil {
		log = logger.Nop()
	}
	b := &base[P]{
		domain:    domain,
		providers: make(map[capability.ProviderID]P, len(providers)),
		selected:  selected,
		log:       log,
		metrics:   m,
	}
	for _, p := range providers {
		if _, dup := b.providers[p.ID()]; dup {
			panic(fmt.Sprintf("factory: duplicate %s provider %q", domain, p.ID()))
		}
		b.providers[p.ID()] = p
		b.order = append(b.order, p.ID())
	}
	return b
}

// resolve returns the provider servicing the request. An unknown explicit
// identifier is a programming error and panics; an unknown *selected*
// identifier comes from user data and is surfaced as a recoverable error.
func (b *base[P]) resolve(explicit ...capability.ProviderID) (P, error) {
	var zero P

	if len(explicit) > 0 && explicit[0] != "" {
		p, ok := b.providers[explicit[0]]
		if !ok {
			panic(fmt.Sprintf("factory: unknown %s provider %q", b.domain, explicit[0]))
		}
		return p, nil
	}

	id, ok := b.selected()
	if !ok {
		return zero, apperrors.Validation(fmt.Sprintf("no provider selected for %s", b.domain))
	}
	p, ok := b.providers[id]
	if !ok {
		return zero, apperrors.Validation(fmt.Sprintf("selected %s provider %q is not registered", b.domain, id))
	}
	return p, nil
}

// gate enforces the uniform pre-call contract: a stub raises a distinct
// not-implemented error and an unconfigured provider a configuration error,
// both before any observable side effect. The factory never silently
// substitutes another provider.
func gate(p capability.Provider) error {
	if !p.Implemented() {
		return apperrors.NotImplemented(string(p.ID()), p.Name())
	}
	if !p.Configured() {
		return apperrors.NotConfigured(string(p.ID()), p.Name())
	}
	return nil
}

// normalize funnels every provider failure into the shared taxonomy.
// Classified errors pass through with their detail; raw errors are wrapped
// so callers never receive a bare transport error as the sole signal.
func normalize(p capability.Provider, err error) error {
	if err == nil {
		return nil
	}
	var e *apperrors.Error
	if errors.As(err, &e) {
		return err
	}
	return apperrors.Provider(string(p.ID()), "", err)
}

// List returns every registered provider in registration order.
func (b *base[P]) List() []Info {
	out := make([]Info, 0, len(b.order))
	for _, id := range b.order {
		p := b.providers[id]
		out = append(out, Info{
			ID:         p.ID(),
			Name:       p.Name(),
			Configured: p.Configured(),
			Stub:       !p.Implemented(),
		})
	}
	return out
}

// ListConfigured returns the registered providers with a stored credential.
func (b *base[P]) ListConfigured() []Info {
	var out []Info
	for _, info := range b.List() {
		if info.Configured && !info.Stub {
			out = append(out, info)
		}
	}
	return out
}

// HasAnyConfigured reports whether the capability is usable at all.
func (b *base[P]) HasAnyConfigured() bool {
	return len(b.ListConfigured()) > 0
}
