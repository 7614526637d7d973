// Package provider hosts the concrete capability implementations and the
// declared-but-unimplemented stubs. "Known but unimplemented" is a state
// the registries represent explicitly: a stub is registered, listable and
// selectable, and raises a distinct not-implemented error when invoked
// rather than "unknown provider".
package provider

import (
	"context"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

// Stub is a declared provider without a working implementation. It
// satisfies every capability interface so one type covers all domains.
type Stub struct {
	id    capability.ProviderID
	name  string
	creds capability.CredentialSource
}

// NewStub declares a provider without an implementation.
func NewStub(id capability.ProviderID, name string, creds capability.CredentialSource) *Stub {
	return &Stub{id: id, name: name, creds: creds}
}

// ID returns the provider identifier.
func (s *Stub) ID() capability.ProviderID { return s.id }

// Name carries the marker so error text is self-explanatory.
func (s *Stub) Name() string { return s.name + " (coming soon)" }

// Implemented reports false for all stubs.
func (s *Stub) Implemented() bool { return false }

// Configured still derives from the credential set: a user may store a key
// for a provider before its implementation ships.
func (s *Stub) Configured() bool {
	_, ok := s.creds.Credential(s.id)
	return ok
}

func (s *Stub) notImplemented() error {
	return apperrors.NotImplemented(string(s.id), s.Name())
}

// AnalyzeBusiness implements capability.TextProvider.
func (s *Stub) AnalyzeBusiness(context.Context, string) (*capability.BusinessAnalysis, error) {
	return nil, s.notImplemented()
}

// GenerateConcepts implements capability.TextProvider.
func (s *Stub) GenerateConcepts(context.Context, *capability.BusinessAnalysis, int) ([]capability.AdConcept, error) {
	return nil, s.notImplemented()
}

// GenerateImage implements capability.ImageProvider.
func (s *Stub) GenerateImage(context.Context, capability.ImageRequest) (*capability.Result, error) {
	return nil, s.notImplemented()
}

// GenerateVideo implements capability.VideoProvider.
func (s *Stub) GenerateVideo(context.Context, capability.VideoRequest) (*capability.Result, error) {
	return nil, s.notImplemented()
}

// Transcribe implements capability.SpeechToTextProvider.
func (s *Stub) Transcribe(context.Context, capability.TranscribeRequest) (*capability.Transcript, error) {
	return nil, s.notImplemented()
}

// Synthesize implements capability.TextToSpeechProvider.
func (s *Stub) Synthesize(context.Context, capability.SpeechRequest) (*capability.AudioClip, error) {
	return nil, s.notImplemented()
}
