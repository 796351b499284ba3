package llm

import (
	"context"
	"errors"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient completes prompts against an OpenAI-compatible /v1 endpoint
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a client. An empty baseURL targets api.openai.com.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg)}
}

// Complete sends the prompt through the legacy completions endpoint so the
// agent's own delimiter tokens reach the model unchanged.
func (c *OpenAIClient) Complete(ctx context.Context, model, prompt string, params config.Params) (string, error) {
	req := openai.CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		Temperature: float32(params.Temperature),
		TopP:        float32(params.TopP),
		N:           1,
	}
	if params.NumPredict > 0 {
		req.MaxTokens = params.NumPredict
	}

	resp, err := c.client.CreateCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &internal.CompletionError{Model: model, StatusCode: statusCode(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &internal.CompletionError{Model: model, Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Text, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
