package settings

import (
	"strings"

	"github.com/adforge/core/internal/capability"
)

// credentialRule is a provider-specific key shape check: a required prefix
// (for providers with structured key formats) and a minimum length.
type credentialRule struct {
	prefix    string
	minLength int
}

// Shape rules only. A passing key is plausible, not verified: confirming a
// key is accepted by the provider is the connectivity monitor's job.
var credentialRules = map[capability.ProviderID]credentialRule{
	capability.ProviderOpenAI:     {prefix: "sk-", minLength: 20},
	capability.ProviderWhisper:    {prefix: "sk-", minLength: 20},
	capability.ProviderClaude:     {prefix: "sk-ant-", minLength: 24},
	capability.ProviderGemini:     {prefix: "AIza", minLength: 30},
	capability.ProviderRunway:     {prefix: "key_", minLength: 20},
	capability.ProviderElevenLabs: {minLength: 32},
	capability.ProviderHeyGen:     {minLength: 32},
	capability.ProviderRunware:    {minLength: 16},
}

// defaultRule applies to declared providers without a structured format.
var defaultRule = credentialRule{minLength: 16}

// ValidateCredential reports whether candidate is a plausible API key for
// the provider. Pure shape check: no side effects, no network access.
func ValidateCredential(id capability.ProviderID, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	if strings.ContainsAny(candidate, " \t\r\n") {
		return false
	}

	rule, ok := credentialRules[id]
	if !ok {
		rule = defaultRule
	}
	if len(candidate) < rule.minLength {
		return false
	}
	if rule.prefix != "" && !strings.HasPrefix(candidate, rule.prefix) {
		return false
	}
	return true
}
