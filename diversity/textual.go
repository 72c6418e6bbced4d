// Package diversity implements the embedding-based textual diversity
// measures of §4.4: per-agent output diversity and population-level
// textual diversity, both built from the mean pairwise cosine distance
// between embedding vectors.
package diversity

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/signalnine/personaevolve/backend"
)

// maxConcurrentEmbeds bounds fan-out to the embedding capability per §5's
// "one bound per backend."
const maxConcurrentEmbeds = 8

// Textual computes the mean pairwise cosine distance over the embeddings of
// texts, clamped to [0,1]. Empty strings are excluded before counting. With
// fewer than two non-empty texts the score is 0.
func Textual(ctx context.Context, embedder backend.Embedder, texts []string) (float64, error) {
	nonEmpty := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	if len(nonEmpty) < 2 {
		return 0, nil
	}

	vectors, err := embedAll(ctx, embedder, nonEmpty)
	if err != nil {
		return 0, err
	}
	return meanPairwiseDistance(vectors), nil
}

func embedAll(ctx context.Context, embedder backend.Embedder, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEmbeds)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			vec, err := embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("diversity: embedding text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func meanPairwiseDistance(vectors [][]float64) float64 {
	n := len(vectors)
	if n < 2 {
		return 0
	}
	total := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += cosineDistance(vectors[i], vectors[j])
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return clamp01(total / float64(pairs))
}

// cosineDistance is 1 - cosine similarity; orthogonal or zero-norm vectors
// are treated as maximally distant (distance 1).
func cosineDistance(u, v []float64) float64 {
	normU := floats.Norm(u, 2)
	normV := floats.Norm(v, 2)
	if normU == 0 || normV == 0 {
		return 1
	}
	dot := floats.Dot(u, v)
	sim := dot / (normU * normV)
	return clamp01(1 - sim)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func meanVector(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	mean := make([]float64, dim)
	for _, v := range vectors {
		floats.Add(mean, v)
	}
	floats.Scale(1/float64(len(vectors)), mean)
	return mean
}
