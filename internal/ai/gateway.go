package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// GatewayReasoner talks to an OpenAI-compatible chat-completions gateway.
type GatewayReasoner struct {
	client *openai.Client
	model  string
}

// NewGatewayReasoner creates a client for the given gateway. baseURL must
// point at the /v1 root of an OpenAI-compatible API.
func NewGatewayReasoner(baseURL, apiKey, model string) *GatewayReasoner {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &GatewayReasoner{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (g *GatewayReasoner) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", classifyGatewayError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyGatewayError maps gateway failures onto the package sentinels.
// Quota and rate-limit statuses are tagged ErrQuotaExceeded; everything else,
// including timeouts, is ErrUnavailable.
func classifyGatewayError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusPaymentRequired, http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", ErrQuotaExceeded, apiErr.HTTPStatusCode)
		}
		return fmt.Errorf("%w: status %d", ErrUnavailable, apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusPaymentRequired, http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", ErrQuotaExceeded, reqErr.HTTPStatusCode)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
