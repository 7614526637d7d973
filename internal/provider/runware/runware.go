// Package runware implements the Runware image capability. Runware takes
// an array of task objects and answers synchronously for single-image
// inference.
package runware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/adforge/core/internal/capability"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

const defaultBaseURL = "https://api.runware.ai"

// Client implements capability.ImageProvider for Runware.
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

// New creates a Runware client.
func New(httpClient *http.Client, creds capability.CredentialSource, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		creds:   creds,
		baseURL: defaultBaseURL,
		model:   "runware:100@1",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderRunware }

// Name returns the display name.
func (c *Client) Name() string { return "Runware" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderRunware)
	return ok
}

type inferenceTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	Model          string `json:"model"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumberResults  int    `json:"numberResults"`
}

type inferenceResponse struct {
	Data []struct {
		TaskUUID string `json:"taskUUID"`
		ImageURL string `json:"imageURL"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// GenerateImage runs one image inference task.
func (c *Client) GenerateImage(ctx context.Context, req capability.ImageRequest) (*capability.Result, error) {
	key, ok := c.creds.Credential(capability.ProviderRunware)
	if !ok {
		return nil, apperrors.NotConfigured(string(c.ID()), c.Name())
	}

	width, height := parseSize(req.Size)
	prompt := req.Prompt
	if req.OverlayText != "" {
		prompt = fmt.Sprintf("%s, with the text %q rendered legibly", prompt, req.OverlayText)
	}

	tasks := []inferenceTask{{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		PositivePrompt: prompt,
		Model:          c.model,
		Width:          width,
		Height:         height,
		NumberResults:  1,
	}}

	body, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1", bytes.NewReader(body))
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

	var apiResp inferenceResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Errors) > 0 {
		return nil, apperrors.Provider(string(c.ID()), apiResp.Errors[0].Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Provider(string(c.ID()), fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	if len(apiResp.Data) == 0 || apiResp.Data[0].ImageURL == "" {
		return nil, apperrors.Provider(string(c.ID()), "image inference returned no output", apperrors.ErrEmptyResult)
	}

	return &capability.Result{URL: apiResp.Data[0].ImageURL}, nil
}

// parseSize maps a "WxH" size string onto pixel dimensions; Runware
// requires multiples of 64.
func parseSize(size string) (int, int) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) == 2 {
		w, errW := strconv.Atoi(parts[0])
		h, errH := strconv.Atoi(parts[1])
		if errW == nil && errH == nil && w%64 == 0 && h%64 == 0 {
			return w, h
		}
	}
	return 1024, 1024
}
