package capability

import "strings"

// Result is the unified asset result shape. Provider always names the
// provider that actually produced the asset.
type Result struct {
	URL             string     `json:"url"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty"`
	DurationSeconds float64    `json:"duration_seconds,omitempty"`
	Provider        ProviderID `json:"provider"`
}

// Transcript is the speech-to-text result shape.
type Transcript struct {
	Text     string     `json:"text"`
	Language string     `json:"language,omitempty"`
	Provider ProviderID `json:"provider"`
}

// AudioClip is the text-to-speech result shape. Browsers surface this as a
// blob URL; here the raw bytes travel with their MIME type.
type AudioClip struct {
	Data     []byte     `json:"-"`
	MIMEType string     `json:"mime_type"`
	Provider ProviderID `json:"provider"`
}

// BusinessAnalysis is the structured output of business document analysis.
type BusinessAnalysis struct {
	BusinessType     string   `json:"business_type"`
	TargetAudience   string   `json:"target_audience"`
	PainPoints       []string `json:"pain_points"`
	ValueProposition string   `json:"value_proposition"`
	PersuasionAngles []string `json:"persuasion_angles"`
}

// AdConcept is one candidate ad: headline, visual direction and call to
// action.
type AdConcept struct {
	Headline      string `json:"headline"`
	VisualConcept string `json:"visual_concept"`
	CallToAction  string `json:"call_to_action"`
}

// MaxHeadlineWords bounds a headline so it fits a rendered ad overlay.
// Text providers prompt the model to this limit and drop anything over it.
const MaxHeadlineWords = 12

// Complete reports whether the concept is usable: a headline that is
// non-empty and within the word bound, and a visual direction to render.
// Models occasionally emit blank or rambling entries inside an otherwise
// well-formed concepts array.
func (c AdConcept) Complete() bool {
	headline := strings.TrimSpace(c.Headline)
	if headline == "" || strings.TrimSpace(c.VisualConcept) == "" {
		return false
	}
	return len(strings.Fields(headline)) <= MaxHeadlineWords
}

// CompleteConcepts filters a model's concepts down to the usable ones,
// preserving order.
func CompleteConcepts(concepts []AdConcept) []AdConcept {
	kept := concepts[:0]
	for _, c := range concepts {
		if c.Complete() {
			kept = append(kept, c)
		}
	}
	return kept
}
