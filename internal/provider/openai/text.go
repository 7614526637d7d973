package openai

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

const analysisSystemPrompt = `You are a marketing analyst. Given a business description, respond with a JSON object containing exactly these keys:
"business_type" (string), "target_audience" (string), "pain_points" (array of strings), "value_proposition" (string), "persuasion_angles" (array of strings).`

const conceptsSystemPrompt = `You are an advertising copywriter. Given a business analysis, respond with a JSON object containing a "concepts" array. Each element has exactly these keys:
"headline" (string, at most twelve words), "visual_concept" (string), "call_to_action" (string).`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// AnalyzeBusiness extracts a structured analysis via a JSON-mode chat
// completion.
func (c *Client) AnalyzeBusiness(ctx context.Context, document string) (*capability.BusinessAnalysis, error) {
	content, err := c.chatJSON(ctx, analysisSystemPrompt, document)
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
	prompt := fmt.Sprintf("Produce %d distinct ad concepts for this analysis:\n%s", n, payload)

	content, err := c.chatJSON(ctx, conceptsSystemPrompt, prompt)
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

// chatJSON runs one JSON-mode completion and returns the message content.
func (c *Client) chatJSON(ctx context.Context, system, user string) (string, error) {
	key, err := c.apiKey()
	if err != nil {
		return "", err
	}

	reqBody := &chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
	}
	reqBody.ResponseFormat = &struct {
		Type string `json:"type"`
	}{Type: "json_object"}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		return "", apperrors.Provider(string(c.ID()), chatResp.Error.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Provider(string(c.ID()), fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if len(chatResp.Choices) == 0 {
		return "", apperrors.Provider(string(c.ID()), "completion returned no choices", apperrors.ErrEmptyResult)
	}
	return chatResp.Choices[0].Message.Content, nil
}
