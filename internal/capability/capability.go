// Package capability defines the provider-agnostic contract of the
// orchestration layer: capability domains, provider identifiers, the
// per-capability generation interfaces and the unified result shapes.
// Provider-specific request/response wire formats never leak past these
// interfaces.
package capability

// Capability identifies a generation domain.
type Capability string

const (
	CapabilityText         Capability = "text"
	CapabilityImage        Capability = "image"
	CapabilityVideo        Capability = "video"
	CapabilitySpeechToText Capability = "speech_to_text"
	CapabilityTextToSpeech Capability = "text_to_speech"
)

// ProviderID identifies a provider. Identifiers are flat across capability
// domains: a single credential entry configures "openai" for text, image
// and speech alike.
type ProviderID string

const (
	ProviderOpenAI     ProviderID = "openai"
	ProviderClaude     ProviderID = "claude"
	ProviderGemini     ProviderID = "gemini"
	ProviderRunware    ProviderID = "runware"
	ProviderRunway     ProviderID = "runway"
	ProviderMidjourney ProviderID = "midjourney"
	ProviderReplicate  ProviderID = "replicate"
	ProviderHeyGen     ProviderID = "heygen"
	ProviderSynthesia  ProviderID = "synthesia"
	ProviderLuma       ProviderID = "luma"
	ProviderPika       ProviderID = "pika"
	ProviderElevenLabs ProviderID = "elevenlabs"
	ProviderWhisper    ProviderID = "openai-whisper"
)

// TextProviders is the closed set of text analysis/generation providers.
var TextProviders = []ProviderID{ProviderOpenAI, ProviderClaude, ProviderGemini}

// ImageProviders is the closed set of image generation providers.
var ImageProviders = []ProviderID{ProviderOpenAI, ProviderRunware, ProviderRunway, ProviderMidjourney, ProviderReplicate}

// VideoProviders is the closed set of video generation providers.
var VideoProviders = []ProviderID{ProviderHeyGen, ProviderSynthesia, ProviderRunway, ProviderLuma, ProviderPika}

// SpeechProviders is the closed set of speech providers.
var SpeechProviders = []ProviderID{ProviderElevenLabs, ProviderWhisper}

// CredentialSource resolves stored credentials. Implemented by the settings
// store; providers consult it on every call so Configured is never cached.
type CredentialSource interface {
	Credential(id ProviderID) (string, bool)
}
