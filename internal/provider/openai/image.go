package openai

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

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n,omitempty"`
	Size           string `json:"size,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
}

type imageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// GenerateImage renders an ad visual through the images endpoint.
func (c *Client) GenerateImage(ctx context.Context, req capability.ImageRequest) (*capability.Result, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	apiReq := &imageRequest{
		Model:          c.imageModel,
		Prompt:         composeImagePrompt(req),
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		Style:          req.Style,
		ResponseFormat: "url",
	}
	if apiReq.Size == "" {
		apiReq.Size = "1024x1024"
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/generations", bytes.NewReader(body))
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

	var apiResp imageResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, apperrors.Provider(string(c.ID()), apiResp.Error.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Provider(string(c.ID()), fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if len(apiResp.Data) == 0 || apiResp.Data[0].URL == "" {
		return nil, apperrors.Provider(string(c.ID()), "image generation returned no output", apperrors.ErrEmptyResult)
	}

	return &capability.Result{URL: apiResp.Data[0].URL}, nil
}

// composeImagePrompt folds the overlay instructions into the prompt text.
func composeImagePrompt(req capability.ImageRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	if req.OverlayText != "" {
		fmt.Fprintf(&b, ". Include the text %q", req.OverlayText)
		if req.OverlayPosition != "" {
			fmt.Fprintf(&b, " positioned at the %s", req.OverlayPosition)
		}
		b.WriteString(" rendered legibly as part of the design.")
	}
	return b.String()
}
