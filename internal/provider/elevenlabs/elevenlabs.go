// Package elevenlabs implements the ElevenLabs text-to-speech capability.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_multilingual_v2"
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
)

// Client implements capability.TextToSpeechProvider for ElevenLabs.
type Client struct {
	http    *http.Client
	creds   capability.CredentialSource
	baseURL string
	model   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New creates an ElevenLabs client.
func New(httpClient *http.Client, creds capability.CredentialSource, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		creds:   creds,
		baseURL: defaultBaseURL,
		model:   defaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderElevenLabs }

// Name returns the display name.
func (c *Client) Name() string { return "ElevenLabs" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderElevenLabs)
	return ok
}

type synthesizeRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

type apiError struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// Synthesize converts text into spoken audio using the configured voice.
func (c *Client) Synthesize(ctx context.Context, req capability.SpeechRequest) (*capability.AudioClip, error) {
	key, ok := c.creds.Credential(capability.ProviderElevenLabs)
	if !ok {
		return nil, apperrors.NotConfigured(string(c.ID()), c.Name())
	}
	if req.Text == "" {
		return nil, apperrors.Validation("speech synthesis requires text")
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultVoiceID
	}

	apiReq := synthesizeRequest{Text: req.Text, ModelID: c.model}
	apiReq.VoiceSettings.Stability = 0.5
	apiReq.VoiceSettings.SimilarityBoost = 0.75

	body, err := json.Marshal(&apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/text-to-speech/"+voice, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("xi-api-key", key)

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
		msg := fmt.Sprintf("speech synthesis failed: status %d", resp.StatusCode)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Detail.Message != "" {
			msg = apiErr.Detail.Message
		}
		return nil, apperrors.Provider(string(c.ID()), msg, nil)
	}
	if len(respBody) == 0 {
		return nil, apperrors.Provider(string(c.ID()), "", apperrors.ErrEmptyResult)
	}

	return &capability.AudioClip{
		Data:     respBody,
		MIMEType: "audio/mpeg",
		Provider: c.ID(),
	}, nil
}

// TestConnection verifies the credential against the user endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	key, ok := c.creds.Credential(capability.ProviderElevenLabs)
	if !ok {
		return apperrors.NotConfigured(string(c.ID()), c.Name())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/user", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return apperrors.Provider(string(c.ID()), fmt.Sprintf("connectivity check failed: status %d", resp.StatusCode), nil)
	}
	return nil
}
