package fitness

import (
	"context"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/diversity"
)

// HeuristicEvaluator implements §4.6's deterministic, backend-free scoring:
// engagement from event count, conversation_quality from mean content
// length, a fixed persona_fidelity/safety, and diversity from the embedding
// capability.
type HeuristicEvaluator struct {
	Embedder backend.Embedder
}

// NewHeuristicEvaluator returns a HeuristicEvaluator backed by embedder.
func NewHeuristicEvaluator(embedder backend.Embedder) *HeuristicEvaluator {
	return &HeuristicEvaluator{Embedder: embedder}
}

// Dimensions implements DimensionReporter: the heuristic evaluator never
// sets social_intelligence, goal_achievement, or novelty.
func (h *HeuristicEvaluator) Dimensions() []string {
	return []string{"engagement", "conversation_quality", "diversity", "persona_fidelity", "safety"}
}

// Evaluate implements Evaluator.
func (h *HeuristicEvaluator) Evaluate(ctx context.Context, name string, transcripts []Transcript) (Scores, error) {
	k := 0
	var texts []string
	for _, t := range transcripts {
		k += t.CountByAuthor[name]
		texts = append(texts, t.TextsByAuthor[name]...)
	}

	meanLen := meanLength(texts)

	div, err := diversity.Textual(ctx, h.Embedder, texts)
	if err != nil {
		return Scores{}, err
	}

	return Scores{
		// k·0.2, computed as k/5 so that e.g. 3 events score exactly 0.6.
		Engagement:          clamp01(float64(k) / 5),
		ConversationQuality: clamp01(meanLen / 100),
		PersonaFidelity:     0.5,
		Safety:              1.0,
		Diversity:           div,
	}, nil
}

func meanLength(texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	total := 0
	for _, t := range texts {
		total += len(t)
	}
	return float64(total) / float64(len(texts))
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
