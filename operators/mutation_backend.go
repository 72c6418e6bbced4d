package operators

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/genotype"
)

// BackendMutator asks the backend for "a slightly different variation with a
// fresh unique name." On parse failure, an empty result, or a transport
// error, it falls back to Fallback (§4.2's "fails open"): a backend failure
// never surfaces as an error, and the only error Mutate can return is one
// from Fallback itself.
type BackendMutator struct {
	Gen      backend.Generator
	Fallback Mutator
	Retry    backend.RetryConfig
}

// NewBackendMutator returns a BackendMutator with the default retry policy.
func NewBackendMutator(gen backend.Generator, fallback Mutator) *BackendMutator {
	return &BackendMutator{Gen: gen, Fallback: fallback, Retry: backend.DefaultRetryConfig()}
}

const mutationSystemPrompt = "You rewrite structured persona definitions. " +
	"Respond with a single JSON object containing \"name\" and \"attributes\", nothing else."

// Mutate implements Mutator.
func (m *BackendMutator) Mutate(ctx context.Context, g *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error) {
	payload, err := json.Marshal(g)
	if err != nil {
		return m.Fallback.Mutate(ctx, g, rng)
	}
	userPrompt := "Produce a slightly different variation of this persona with a fresh unique name:\n" + string(payload)

	var raw string
	err = backend.WithRetry(ctx, m.Retry, func() error {
		out, genErr := m.Gen.Generate(ctx, mutationSystemPrompt, userPrompt, backend.GenerateOptions{})
		if genErr != nil {
			return genErr
		}
		raw = out
		return nil
	})
	if err != nil {
		return m.Fallback.Mutate(ctx, g, rng)
	}

	mutated, ok := parseGenotype(raw)
	if !ok || mutated.Name == "" {
		return m.Fallback.Mutate(ctx, g, rng)
	}
	return mutated, nil
}

// parseGenotype decodes a genotype JSON object, accepting a fenced code
// block wrapper the way the judge prompt response does (§4.6).
func parseGenotype(raw string) (*genotype.Genotype, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return nil, false
	}

	var g genotype.Genotype
	if err := json.Unmarshal([]byte(trimmed), &g); err != nil {
		return nil, false
	}
	return &g, true
}
