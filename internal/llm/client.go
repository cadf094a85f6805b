// Package llm provides model access through GenKit with the OpenAI
// compatibility plugin, so any OpenAI-style endpoint works via a base URL.
package llm

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/openai/openai-go/option"

	"waypoint/internal/logging"
)

// Generator is the single capability the assistant needs from a model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client wraps a GenKit app configured with one provider/model pair.
type Client struct {
	app       *genkit.Genkit
	modelName string
}

// NewClient initializes GenKit with the OpenAI plugin. provider prefixes
// the model name the way GenKit expects (e.g. "openai/gpt-4o").
func NewClient(ctx context.Context, provider, model, apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("AI API key is required (set ai_api_key or OPENAI_API_KEY)")
	}

	var opts []option.RequestOption
	if baseURL != "" {
		logging.Debug("Using custom OpenAI-compatible base URL: %s", baseURL)
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	app := genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{
		APIKey: apiKey,
		Opts:   opts,
	}))

	return &Client{
		app:       app,
		modelName: fmt.Sprintf("%s/%s", provider, model),
	}, nil
}

// Generate runs one completion and returns the response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := genkit.Generate(ctx, c.app,
		ai.WithModelName(c.modelName),
		ai.WithPrompt(prompt))
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	return response.Text(), nil
}
