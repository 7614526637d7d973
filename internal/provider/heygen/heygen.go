// Package heygen implements the HeyGen video capability: a script-driven
// avatar video is submitted as a job, then video_status is polled until
// the render finishes.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/adforge/core/internal/capability"
	"github.com/adforge/core/internal/poll"
	apperrors "github.com/adforge/core/internal/shared/errors"
)

const defaultBaseURL = "https://api.heygen.com"

// Client implements capability.VideoProvider for HeyGen.
type Client struct {
	http    *http.Client
	creds   capability.CredentialSource
	poller  *poll.Poller
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New creates a HeyGen client. The poller drives the status loop.
func New(httpClient *http.Client, creds capability.CredentialSource, poller *poll.Poller, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		creds:   creds,
		poller:  poller,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderHeyGen }

// Name returns the display name.
func (c *Client) Name() string { return "HeyGen" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderHeyGen)
	return ok
}

type videoInput struct {
	Voice struct {
		Type      string `json:"type"`
		InputText string `json:"input_text"`
	} `json:"voice"`
}

type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"dimension"`
}

type generateResponse struct {
	Data *struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type statusResponse struct {
	Data *struct {
		Status       string  `json:"status"` // waiting, pending, processing, completed, failed
		VideoURL     string  `json:"video_url"`
		ThumbnailURL string  `json:"thumbnail_url"`
		Duration     float64 `json:"duration"`
		Error        *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

// GenerateVideo submits a script-driven render job and polls it to
// completion. Submission failure is a direct failure; no polling begins.
func (c *Client) GenerateVideo(ctx context.Context, req capability.VideoRequest) (*capability.Result, error) {
	key, ok := c.creds.Credential(capability.ProviderHeyGen)
	if !ok {
		return nil, apperrors.NotConfigured(string(c.ID()), c.Name())
	}
	if req.Script == "" {
		return nil, apperrors.Validation("heygen video generation requires a script")
	}

	videoID, err := c.submit(ctx, key, req)
	if err != nil {
		return nil, err
	}

	return c.poller.Wait(ctx, c.ID(), func(ctx context.Context) (*poll.Update, error) {
		return c.checkStatus(ctx, key, videoID)
	})
}

func (c *Client) submit(ctx context.Context, key string, req capability.VideoRequest) (string, error) {
	var apiReq generateRequest
	input := videoInput{}
	input.Voice.Type = "text"
	input.Voice.InputText = req.Script
	apiReq.VideoInputs = []videoInput{input}
	apiReq.Dimension.Width, apiReq.Dimension.Height = dimensionFor(req.AspectRatio)

	body, err := json.Marshal(&apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/video/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", key)

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
		return "", apperrors.Provider(string(c.ID()), fmt.Sprintf("job submission failed: status %d", resp.StatusCode), nil)
	}
	if apiResp.Data == nil || apiResp.Data.VideoID == "" {
		return "", apperrors.Provider(string(c.ID()), "job submission returned no video id", nil)
	}
	return apiResp.Data.VideoID, nil
}

func (c *Client) checkStatus(ctx context.Context, key, videoID string) (*poll.Update, error) {
	url := c.baseURL + "/v1/video_status.get?video_id=" + videoID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", key)

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
		return nil, fmt.Errorf("status check failed: status %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if status.Data == nil {
		return nil, fmt.Errorf("status check returned no data")
	}

	switch status.Data.Status {
	case "completed":
		u := &poll.Update{Status: poll.StatusSucceeded, Progress: 100}
		if status.Data.VideoURL != "" {
			u.Result = &capability.Result{
				URL:             status.Data.VideoURL,
				ThumbnailURL:    status.Data.ThumbnailURL,
				DurationSeconds: status.Data.Duration,
			}
		}
		return u, nil
	case "failed":
		msg := "video generation failed"
		if status.Data.Error != nil && status.Data.Error.Message != "" {
			msg = status.Data.Error.Message
		}
		return &poll.Update{Status: poll.StatusFailed, FailureMessage: msg}, nil
	case "processing":
		return &poll.Update{Status: poll.StatusRunning}, nil
	default:
		return &poll.Update{Status: poll.StatusPending}, nil
	}
}

// dimensionFor maps an aspect ratio onto render dimensions.
func dimensionFor(ratio string) (int, int) {
	switch ratio {
	case "9:16":
		return 720, 1280
	case "1:1":
		return 1080, 1080
	default:
		return 1280, 720
	}
}
