// Package openai implements the OpenAI-backed capabilities: business
// analysis and ad copy via chat completions, image generation via DALL-E,
// narration via the speech endpoint, and a separate Whisper transcription
// provider (its own provider identifier and credential entry).
package openai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

const defaultBaseURL = "https://api.openai.com"

// Client implements the text, image and text-to-speech capabilities.
type Client struct {
	http    *http.Client
	creds   capability.CredentialSource
	baseURL string

	chatModel  string
	imageModel string
	ttsModel   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (tests point it at httptest).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New creates an OpenAI client.
func New(httpClient *http.Client, creds capability.CredentialSource, opts ...Option) *Client {
	c := &Client{
		http:       httpClient,
		creds:      creds,
		baseURL:    defaultBaseURL,
		chatModel:  "gpt-4o-mini",
		imageModel: "dall-e-3",
		ttsModel:   "tts-1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderOpenAI }

// Name returns the display name.
func (c *Client) Name() string { return "OpenAI" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderOpenAI)
	return ok
}

func (c *Client) apiKey() (string, error) {
	key, ok := c.creds.Credential(capability.ProviderOpenAI)
	if !ok {
		return "", apperrors.NotConfigured(string(c.ID()), c.Name())
	}
	return key, nil
}

// TestConnection issues a minimal read-only call. Advisory only.
func (c *Client) TestConnection(ctx context.Context) error {
	key, err := c.apiKey()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connection test failed: status %d", resp.StatusCode)
	}
	return nil
}
