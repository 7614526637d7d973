package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Synthesize renders narration audio through the speech endpoint.
func (c *Client) Synthesize(ctx context.Context, req capability.SpeechRequest) (*capability.AudioClip, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	voice := req.Voice
	if voice == "" {
		voice = "alloy"
	}
	body, err := json.Marshal(&speechRequest{Model: c.ttsModel, Input: req.Text, Voice: voice})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Provider(string(c.ID()), speechErrorMessage(respBody, resp.StatusCode), nil)
	}
	if len(respBody) == 0 {
		return nil, apperrors.Provider(string(c.ID()), "speech synthesis returned no audio", apperrors.ErrEmptyResult)
	}

	return &capability.AudioClip{Data: respBody, MIMEType: "audio/mpeg"}, nil
}

// Whisper is the transcription provider. It is registered under its own
// identifier with its own credential entry, separate from the OpenAI
// generation provider.
type Whisper struct {
	http    *http.Client
	creds   capability.CredentialSource
	baseURL string
	model   string
}

// NewWhisper creates a Whisper transcription provider.
func NewWhisper(httpClient *http.Client, creds capability.CredentialSource, opts ...func(*Whisper)) *Whisper {
	w := &Whisper{
		http:    httpClient,
		creds:   creds,
		baseURL: defaultBaseURL,
		model:   "whisper-1",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithWhisperBaseURL overrides the API base URL.
func WithWhisperBaseURL(u string) func(*Whisper) {
	return func(w *Whisper) { w.baseURL = u }
}

// ID returns the provider identifier.
func (w *Whisper) ID() capability.ProviderID { return capability.ProviderWhisper }

// Name returns the display name.
func (w *Whisper) Name() string { return "OpenAI Whisper" }

// Implemented reports a working implementation.
func (w *Whisper) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (w *Whisper) Configured() bool {
	_, ok := w.creds.Credential(capability.ProviderWhisper)
	return ok
}

// Transcribe uploads captured audio for transcription.
func (w *Whisper) Transcribe(ctx context.Context, req capability.TranscribeRequest) (*capability.Transcript, error) {
	key, ok := w.creds.Credential(capability.ProviderWhisper)
	if !ok {
		return nil, apperrors.NotConfigured(string(w.ID()), w.Name())
	}
	if len(req.Audio) == 0 {
		return nil, apperrors.Validation("transcription requires captured audio")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", audioFileName(req.MIMEType))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("model", w.model); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	// verbose_json carries the detected language alongside the text.
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("write field: %w", err)
	}
	if req.Language != "" {
		if err := mw.WriteField("language", req.Language); err != nil {
			return nil, fmt.Errorf("write field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/v1/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := w.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Provider(string(w.ID()), speechErrorMessage(respBody, resp.StatusCode), nil)
	}

	var parsed struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	// Prefer the detected language; older responses may omit it, in which
	// case the caller's hint is the best available answer.
	language := parsed.Language
	if language == "" {
		language = req.Language
	}

	return &capability.Transcript{Text: parsed.Text, Language: language}, nil
}

// speechErrorMessage extracts the provider's error detail, falling back to
// the status code.
func speechErrorMessage(body []byte, status int) string {
	var parsed struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return fmt.Sprintf("unexpected status code: %d", status)
}

// audioFileName picks an upload name matching the capture container.
func audioFileName(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav":
		return "recording.wav"
	case "audio/mpeg", "audio/mp3":
		return "recording.mp3"
	case "audio/ogg":
		return "recording.ogg"
	default:
		return "recording.webm"
	}
}
