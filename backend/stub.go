package backend

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

// StubGenerator is the deterministic backend double of spec.md §8 scenario
// 1: "stub backend that echoes `post by <name>` for posts, `reply by <name>`
// for replies, and always answers `yes` to engage." It exists so `evolve
// run` has something to execute against without wiring real backend
// authentication, which spec.md §1 names a non-goal.
type StubGenerator struct{}

// NewStubGenerator returns the always-available echo backend.
func NewStubGenerator() *StubGenerator { return &StubGenerator{} }

var nameFromSystemPrompt = regexp.MustCompile(`^You are ([^,.\n]+)`)

// Generate implements Generator. It never errors; prompts it doesn't
// recognize get an empty response, which callers already treat as a
// fallback trigger (synthetic placeholders, static topic/nickname lists,
// judge-fallback scores).
func (s *StubGenerator) Generate(_ context.Context, systemPrompt, userPrompt string, _ GenerateOptions) (string, error) {
	name := "persona"
	if m := nameFromSystemPrompt.FindStringSubmatch(systemPrompt); len(m) == 2 {
		name = m[1]
	}

	switch {
	case strings.Contains(userPrompt, "Write a short social-media post"):
		return "post by " + name, nil
	case strings.Contains(userPrompt, "Reply to this post by"):
		return "reply by " + name, nil
	case strings.Contains(userPrompt, "Would you reply to this post"):
		return "yes", nil
	default:
		return "", nil
	}
}

// StubEmbedder is a deterministic hash-based embedding double: same text
// always maps to the same vector, different text (almost always) maps to a
// different one, which is all the diversity measures of §4.4 require.
type StubEmbedder struct{ Dimensions int }

// NewStubEmbedder returns a StubEmbedder producing vectors of dims
// dimensions (16 if dims <= 0).
func NewStubEmbedder(dims int) *StubEmbedder {
	if dims <= 0 {
		dims = 16
	}
	return &StubEmbedder{Dimensions: dims}
}

// Embed implements Embedder. Never errors.
func (s *StubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, s.Dimensions)
	h := fnv.New64a()
	for i := range vec {
		h.Write([]byte{byte(i)})
		h.Write([]byte(text))
		sum := h.Sum64()
		vec[i] = float64(sum%1000) / 1000
	}
	return vec, nil
}
