// Package openai provides a core.Embedder implementation backed by the OpenAI
// Embeddings API. It adapts docmesh's narrow Embed contract onto the official
// SDK client.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/docmesh/docmesh/config"
)

// Options configure the OpenAI embedder.
type Options struct {
	// Model selects the embedding model.
	Model openai.EmbeddingModel
	// Dimensions optionally reduces the output vector length (supported by
	// the text-embedding-3 family). Zero keeps the model default.
	Dimensions int64
}

// FromConfig maps the environment-loaded embedding settings onto the embedder
// options, for use as NewEmbedder(openai.FromConfig(cfg)).
func FromConfig(cfg *config.Config) func(o *Options) {
	return func(o *Options) {
		if cfg.EmbeddingModel != "" {
			o.Model = openai.EmbeddingModel(cfg.EmbeddingModel)
		}
		o.Dimensions = cfg.EmbeddingDimensions
	}
}

// Embedder wraps the OpenAI Embeddings API behind the core.Embedder interface.
type Embedder struct {
	client *openai.Client
	opts   Options
}

// NewEmbedder creates a new OpenAI embedder using the official client
// (configured from the environment).
func NewEmbedder(optFns ...func(o *Options)) *Embedder {
	client := openai.NewClient()
	return NewEmbedderFromClient(&client, optFns...)
}

// NewEmbedderFromClient creates a new OpenAI embedder from an existing client.
func NewEmbedderFromClient(client *openai.Client, optFns ...func(o *Options)) *Embedder {
	opts := Options{
		Model: openai.EmbeddingModelTextEmbedding3Small,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Embedder{client: client, opts: opts}
}

// Embed returns the embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: e.opts.Model,
	}
	if e.opts.Dimensions > 0 {
		params.Dimensions = openai.Int(e.opts.Dimensions)
	}
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}
