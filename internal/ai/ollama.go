package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaReasoner runs the reasoning prompt against a local Ollama instance,
// for setups without a hosted gateway key.
type OllamaReasoner struct {
	client *api.Client
	model  string
}

func NewOllamaReasoner(baseURL, model string) (*OllamaReasoner, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		parsed, parseErr := url.Parse(baseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid ollama base URL: %w", parseErr)
		}
		client = api.NewClient(parsed, nil)
	}
	return &OllamaReasoner{client: client, model: model}, nil
}

func (o *OllamaReasoner) Complete(ctx context.Context, system, user string) (string, error) {
	req := &api.GenerateRequest{
		Model:  o.model,
		System: system,
		Prompt: user,
		Stream: new(bool), // false
		Options: map[string]any{
			"temperature": 0.4,
		},
	}

	var full strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		full.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return full.String(), nil
}
