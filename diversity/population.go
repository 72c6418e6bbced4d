package diversity

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/personaevolve/backend"
)

// PerAgent computes the per-agent output diversity of §4.4: the textual
// diversity over all texts authored by one agent within a generation's
// transcripts.
func PerAgent(ctx context.Context, embedder backend.Embedder, agentTexts map[string][]string) (map[string]float64, error) {
	out := make(map[string]float64, len(agentTexts))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEmbeds)

	for name, texts := range agentTexts {
		name, texts := name, texts
		g.Go(func() error {
			d, err := Textual(ctx, embedder, texts)
			if err != nil {
				return fmt.Errorf("diversity: per-agent diversity for %s: %w", name, err)
			}
			mu.Lock()
			out[name] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Population computes the population textual diversity of §4.4: each
// agent's mean embedding vector, then the mean pairwise cosine distance
// between those mean vectors.
func Population(ctx context.Context, embedder backend.Embedder, agentTexts map[string][]string) (float64, error) {
	var names []string
	for name, texts := range agentTexts {
		if len(texts) > 0 {
			names = append(names, name)
		}
	}
	if len(names) < 2 {
		return 0, nil
	}

	meanVectors := make([][]float64, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEmbeds)

	for i, name := range names {
		i, texts := i, agentTexts[name]
		g.Go(func() error {
			vectors, err := embedAll(ctx, embedder, nonEmptyTexts(texts))
			if err != nil {
				return fmt.Errorf("diversity: embedding agent texts: %w", err)
			}
			meanVectors[i] = meanVector(vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	valid := make([][]float64, 0, len(meanVectors))
	for _, v := range meanVectors {
		if v != nil {
			valid = append(valid, v)
		}
	}
	return meanPairwiseDistance(valid), nil
}

func nonEmptyTexts(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
