package vectorstore

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIEmbedder embeds text through the OpenAI embeddings API, or any
// compatible endpoint when a base URL is configured.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

// NewOpenAIEmbedder builds an embedder for the given model.
func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		vectors[data.Index] = vec
	}
	return vectors, nil
}
