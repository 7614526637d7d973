package capability

import "context"

// Provider is the base contract every capability implementation satisfies.
type Provider interface {
	// ID returns the stable provider identifier.
	ID() ProviderID

	// Name returns the human-readable provider name, used in error
	// messages and listings. Stub providers carry a "(coming soon)"
	// marker so error text is self-explanatory.
	Name() string

	// Implemented reports whether this is a working implementation or a
	// declared stub.
	Implemented() bool

	// Configured derives from the credential source on every call; the
	// result is never cached.
	Configured() bool
}

// TextProvider analyzes business documents and derives ad copy.
type TextProvider interface {
	Provider

	// AnalyzeBusiness extracts a structured analysis from a free-text
	// business description.
	AnalyzeBusiness(ctx context.Context, document string) (*BusinessAnalysis, error)

	// GenerateConcepts derives up to n ad concepts from an analysis.
	GenerateConcepts(ctx context.Context, analysis *BusinessAnalysis, n int) ([]AdConcept, error)
}

// ImageProvider renders still ad visuals.
type ImageProvider interface {
	Provider
	GenerateImage(ctx context.Context, req ImageRequest) (*Result, error)
}

// VideoProvider renders video ads, typically through an asynchronous job.
type VideoProvider interface {
	Provider
	GenerateVideo(ctx context.Context, req VideoRequest) (*Result, error)
}

// SpeechToTextProvider transcribes recorded audio.
type SpeechToTextProvider interface {
	Provider
	Transcribe(ctx context.Context, req TranscribeRequest) (*Transcript, error)
}

// TextToSpeechProvider synthesizes narration audio.
type TextToSpeechProvider interface {
	Provider
	Synthesize(ctx context.Context, req SpeechRequest) (*AudioClip, error)
}

// ConnectivityTester is implemented by providers that can issue a minimal
// read-only call to verify a credential is accepted. Advisory only: its
// result never participates in Configured.
type ConnectivityTester interface {
	TestConnection(ctx context.Context) error
}
