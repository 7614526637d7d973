// Package runway implements the Runway video capability: an image-to-video
// job is submitted, then its task status is polled until the render
// finishes.
package runway

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

const (
	defaultBaseURL = "https://api.dev.runwayml.com"
	apiVersion     = "2024-11-06"
)

// Client implements capability.VideoProvider for Runway.
type Client struct {
	http    *http.Client
	creds   capability.CredentialSource
	poller  *poll.Poller
	baseURL string
	model   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// New creates a Runway client. The poller drives the task status loop.
func New(httpClient *http.Client, creds capability.CredentialSource, poller *poll.Poller, opts ...Option) *Client {
	c := &Client{
		http:    httpClient,
		creds:   creds,
		poller:  poller,
		baseURL: defaultBaseURL,
		model:   "gen3a_turbo",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the provider identifier.
func (c *Client) ID() capability.ProviderID { return capability.ProviderRunway }

// Name returns the display name.
func (c *Client) Name() string { return "Runway" }

// Implemented reports a working implementation.
func (c *Client) Implemented() bool { return true }

// Configured derives from the stored credential set on every call.
func (c *Client) Configured() bool {
	_, ok := c.creds.Credential(capability.ProviderRunway)
	return ok
}

type submitRequest struct {
	PromptImage string  `json:"promptImage,omitempty"`
	PromptText  string  `json:"promptText,omitempty"`
	Model       string  `json:"model"`
	Duration    float64 `json:"duration,omitempty"`
	Ratio       string  `json:"ratio,omitempty"`
}

type submitResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

type taskResponse struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"` // PENDING, RUNNING, SUCCEEDED, FAILED
	Progress float64  `json:"progress,omitempty"`
	Output   []string `json:"output,omitempty"`
	Failure  string   `json:"failure,omitempty"`
}

// GenerateVideo submits an image-to-video job and polls it to completion.
// Submission failure is a direct failure; no polling begins.
func (c *Client) GenerateVideo(ctx context.Context, req capability.VideoRequest) (*capability.Result, error) {
	key, ok := c.creds.Credential(capability.ProviderRunway)
	if !ok {
		return nil, apperrors.NotConfigured(string(c.ID()), c.Name())
	}
	if req.SourceImageURL == "" {
		return nil, apperrors.Validation("runway video generation requires a source image")
	}

	taskID, err := c.submit(ctx, key, req)
	if err != nil {
		return nil, err
	}

	return c.poller.Wait(ctx, c.ID(), func(ctx context.Context) (*poll.Update, error) {
		return c.checkTask(ctx, key, taskID, req.DurationSeconds)
	})
}

func (c *Client) submit(ctx context.Context, key string, req capability.VideoRequest) (string, error) {
	body, err := json.Marshal(&submitRequest{
		PromptImage: req.SourceImageURL,
		PromptText:  req.Motion,
		Model:       c.model,
		Duration:    req.DurationSeconds,
		Ratio:       req.AspectRatio,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/image_to_video", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq, key)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var apiResp submitResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg := apiResp.Error
		if msg == "" {
			msg = fmt.Sprintf("job submission failed: status %d", resp.StatusCode)
		}
		return "", apperrors.Provider(string(c.ID()), msg, nil)
	}
	if apiResp.ID == "" {
		return "", apperrors.Provider(string(c.ID()), "job submission returned no task id", nil)
	}
	return apiResp.ID, nil
}

func (c *Client) checkTask(ctx context.Context, key, taskID string, duration float64) (*poll.Update, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq, key)

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

	var task taskResponse
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	switch task.Status {
	case "SUCCEEDED":
		u := &poll.Update{Status: poll.StatusSucceeded, Progress: 100}
		if len(task.Output) > 0 {
			u.Result = &capability.Result{
				URL:             task.Output[0],
				DurationSeconds: duration,
			}
		}
		return u, nil
	case "FAILED":
		return &poll.Update{Status: poll.StatusFailed, FailureMessage: task.Failure}, nil
	case "RUNNING":
		return &poll.Update{Status: poll.StatusRunning, Progress: int(task.Progress * 100)}, nil
	default:
		return &poll.Update{Status: poll.StatusPending}, nil
	}
}

func (c *Client) setHeaders(req *http.Request, key string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("X-Runway-Version", apiVersion)
}
