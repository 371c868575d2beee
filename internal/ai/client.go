package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// TextGenerator is the model endpoint the skills talk to. The returned text
// is expected, not guaranteed, to be a JSON object.
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error)
}

type OpenAIClient struct {
	client *openai.Client
	Model  string
}

// New returns a client for the chat completions API. An empty baseURL keeps
// the public OpenAI endpoint.
func New(apiKey, model, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		Model:  model,
	}
}

// Generate sends one JSON-mode chat completion. No retries.
func (c *OpenAIClient) Generate(ctx context.Context, systemInstruction, userInstruction string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userInstruction},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai: %s (status %d): %w", apiErr.Message, apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
