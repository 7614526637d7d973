// Package gemini implements the Gemini text capability via the
// generateContent API.
package gemini

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

const defaultBaseURL = "https://generativelanguage.googleapis.com"

const analysisPrompt = `You are a marketing analyst. Given the business description below, respond with a JSON object containing exactly these keys:
"business_type" (string), "target_audience" (string), "pain_points" (array of strings), "value_proposition" (string), "persuasion_angles" (array of strings).

Business description:
`

const conceptsPrompt = `You are an advertising copywriter. Given the business analysis below, respond with a JSON object containing a "concepts" array whose elements have exactly these keys:
"headline" (string, at most twelve words), "visual_concept" (string), "call_to_action" (string). Produce %d distinct concepts.

Analysis:
`

// Client implements capability.TextProvider for Gemini.
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

// New creates a Gemini client.
func New(httpClient *http.Client, creds capability.CredentialSource, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		creds:   creds,
		baseURL: defaultBaseURL,
		model:   "gemini-1.5-flash",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderGemini }

// Name returns the display name.
func (c *Client) Name() string { return "Gemini" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderGemini)
	return ok
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnalyzeBusiness extracts a structured analysis.
func (c *Client) AnalyzeBusiness(ctx context.Context, document string) (*capability.BusinessAnalysis, error) {
	content, err := c.generate(ctx, analysisPrompt+document)
	if err != nil {
		return nil, err
	}

	var analysis capability.BusinessAnalysis
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, apperrors.Provider(string(c.ID()), "model returned malformed analysis", err)
	}
	if analysis.BusinessType == "" || analysis.TargetAudience == "" {
		return nil, apperrors.Provider(string(c.ID()), "model returned incomplete analysis", nil)
	}
	return &analysis, nil
}

// GenerateConcepts derives ad concepts from an analysis.
func (c *Client) GenerateConcepts(ctx context.Context, analysis *capability.BusinessAnalysis, n int) ([]capability.AdConcept, error) {
	if n < 1 {
		n = 1
	}
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}

	content, err := c.generate(ctx, fmt.Sprintf(conceptsPrompt, n)+string(payload))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Concepts []capability.AdConcept `json:"concepts"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, apperrors.Provider(string(c.ID()), "model returned malformed concepts", err)
	}
	parsed.Concepts = capability.CompleteConcepts(parsed.Concepts)
	if len(parsed.Concepts) == 0 {
		return nil, apperrors.Provider(string(c.ID()), "model returned no usable concepts", apperrors.ErrEmptyResult)
	}
	if len(parsed.Concepts) > n {
		parsed.Concepts = parsed.Concepts[:n]
	}
	return parsed.Concepts, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	key, ok := c.creds.Credential(capability.ProviderGemini)
	if !ok {
		return "", apperrors.NotConfigured(string(c.ID()), c.Name())
	}

	apiReq := &generateRequest{
		Contents:         []generateContent{{Parts: []generatePart{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMIMEType: "application/json"},
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, key)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", apperrors.Provider(string(c.ID()), apiResp.Error.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Provider(string(c.ID()), fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.Provider(string(c.ID()), "model returned no candidates", apperrors.ErrEmptyResult)
	}
	return apiResp.Candidates[0].Content.Parts[0].Text, nil
}
