// Package anthropic implements the Claude text capability via the
// messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

const analysisSystemPrompt = `You are a marketing analyst. Respond only with a JSON object containing exactly these keys:
"business_type" (string), "target_audience" (string), "pain_points" (array of strings), "value_proposition" (string), "persuasion_angles" (array of strings). No prose outside the JSON.`

const conceptsSystemPrompt = `You are an advertising copywriter. Respond only with a JSON object containing a "concepts" array whose elements have exactly these keys:
"headline" (string, at most twelve words), "visual_concept" (string), "call_to_action" (string). No prose outside the JSON.`

// Client implements capability.TextProvider for Claude.
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

// New creates a Claude client.
func New(httpClient *http.Client, creds capability.CredentialSource, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		creds:   creds,
		baseURL: defaultBaseURL,
		model:   "claude-3-5-sonnet-latest",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderClaude }

// Name returns the display name.
func (c *Client) Name() string { return "Claude" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderClaude)
	return ok
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnalyzeBusiness extracts a structured analysis.
func (c *Client) AnalyzeBusiness(ctx context.Context, document string) (*capability.BusinessAnalysis, error) {
	content, err := c.complete(ctx, analysisSystemPrompt, document)
	if err != nil {
		return nil, err
	}

	var analysis capability.BusinessAnalysis
	if err := json.Unmarshal([]byte(extractJSON(content)), &analysis); err != nil {
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
	prompt := fmt.Sprintf("Produce %d distinct ad concepts for this analysis:\n%s", n, payload)

	content, err := c.complete(ctx, conceptsSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Concepts []capability.AdConcept `json:"concepts"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
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

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	key, ok := c.creds.Credential(capability.ProviderClaude)
	if !ok {
		return "", apperrors.NotConfigured(string(c.ID()), c.Name())
	}

	body, err := json.Marshal(&messagesRequest{
		Model:     c.model,
		MaxTokens: 2048,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", key)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return "", apperrors.Provider(string(c.ID()), apiResp.Error.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Provider(string(c.ID()), fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if len(apiResp.Content) == 0 {
		return "", apperrors.Provider(string(c.ID()), "completion returned no content", apperrors.ErrEmptyResult)
	}
	return apiResp.Content[0].Text, nil
}

// extractJSON strips markdown code fences the model sometimes wraps JSON
// in despite instructions.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}
