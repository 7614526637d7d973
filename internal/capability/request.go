package capability

// ImageRequest is the unified image generation parameter shape.
type ImageRequest struct {
	Prompt          string `json:"prompt"`
	OverlayText     string `json:"overlay_text,omitempty"`
	OverlayPosition string `json:"overlay_position,omitempty"`
	Size            string `json:"size,omitempty"`    // e.g. "1024x1024"
	Quality         string `json:"quality,omitempty"` // standard, hd
	Style           string `json:"style,omitempty"`   // vivid, natural
}

// VideoRequest is the unified video generation parameter shape. Either a
// script (avatar/narration providers) or a source image plus motion
// description (image-to-video providers) drives the render.
type VideoRequest struct {
	Script          string  `json:"script,omitempty"`
	SourceImageURL  string  `json:"source_image_url,omitempty"`
	Motion          string  `json:"motion,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	AspectRatio     string  `json:"aspect_ratio,omitempty"`
}

// TranscribeRequest carries captured audio for speech-to-text.
type TranscribeRequest struct {
	Audio    []byte `json:"-"`
	MIMEType string `json:"mime_type"`
	Language string `json:"language,omitempty"`
}

// SpeechRequest carries narration text for text-to-speech.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}
