// Package backend defines the opaque text-generation and embedding
// capabilities the rest of the system treats as external collaborators: a
// prompted-completion call and a text-to-vector call, both context-first,
// single-method interfaces so concrete providers can be swapped at engine
// construction without touching call sites.
package backend

import "context"

// GenerateOptions carries the optional knobs spec.md §6 allows on a
// generate call. Zero value means "let the provider choose."
type GenerateOptions struct {
	ModelID     string
	Temperature float64
	HasTemp     bool
}

// Generator is the text-generation capability. Contract (§6): returns
// generated text; never errors for model-level refusals (an empty string
// signals a refusal); may error for transport failures, which callers retry
// per the backoff policy in §5.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// Embedder is the embedding capability: a fixed-dimension vector for a piece
// of text, stable for the lifetime of a process.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// GeneratorFunc adapts a plain function to a Generator.
type GeneratorFunc func(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	return f(ctx, systemPrompt, userPrompt, opts)
}

// EmbedderFunc adapts a plain function to an Embedder.
type EmbedderFunc func(ctx context.Context, text string) ([]float64, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}
