package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
)

// DefaultTimeout bounds a single completion request
const DefaultTimeout = 120 * time.Second

// Client is an HTTP client for the Ollama API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server listening on baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// LocalURL is the base URL of a server bound to the loopback interface
func LocalURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

type generateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options config.Params `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Complete posts the prompt to /api/generate and returns the response text
func (c *Client) Complete(ctx context.Context, model, prompt string, params config.Params) (string, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Options: params})
	if err != nil {
		return "", &internal.CompletionError{Model: model, Err: err}
	}

	internal.LogDebug("POST %s/api/generate model=%s prompt=%d bytes", c.baseURL, model, len(prompt))
	start := time.Now()

	var out generateResponse
	status, err := c.do(ctx, http.MethodPost, "/api/generate", body, &out)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &internal.CompletionError{Model: model, StatusCode: status, Err: err}
	}
	if out.Error != "" {
		return "", &internal.CompletionError{Model: model, StatusCode: status, Err: errors.New(out.Error)}
	}
	if out.Response == nil {
		return "", &internal.CompletionError{Model: model, StatusCode: status, Err: errors.New("response field missing")}
	}

	internal.LogDebug("Completion from %s in %s (%d bytes)", model, time.Since(start).Round(time.Millisecond), len(*out.Response))
	return *out.Response, nil
}

// Model is an installed model as reported by /api/tags
type Model struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ListModels returns the models installed on the server
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var out struct {
		Models []Model `json:"models"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return out.Models, nil
}

// Ping reports whether the server answers
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// do sends a JSON request and decodes a JSON response, returning the status code
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, errors.New(apiErr.Error)
		}
		return resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}
