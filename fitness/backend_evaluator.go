package fitness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/signalnine/personaevolve/backend"
)

// judgeTimeout is §5's default judge-call deadline.
const judgeTimeout = 10 * time.Second

// BackendEvaluator constructs a single judge prompt per §4.6 and requests a
// JSON object with one key per scoring dimension. The prompt names the
// persona but carries none of its genotype attributes, and lists the post
// and reply texts of each transcript grouped by author, in no fixed author
// order; pass events and the original event order are not included. On any
// parse or schema failure it falls back to
// {engagement: 0.1, safety: 1.0, rest: 0.0} and flags Degraded.
type BackendEvaluator struct {
	Gen backend.Generator
}

// NewBackendEvaluator returns a BackendEvaluator.
func NewBackendEvaluator(gen backend.Generator) *BackendEvaluator {
	return &BackendEvaluator{Gen: gen}
}

// Dimensions implements DimensionReporter: the judge prompt requests every
// scoring dimension.
func (b *BackendEvaluator) Dimensions() []string {
	return AllDimensions
}

const judgeSystemPrompt = "You are a strict evaluator of social-media persona simulations. " +
	"Respond with a single JSON object whose keys are engagement, conversation_quality, diversity, " +
	"persona_fidelity, safety, social_intelligence, goal_achievement, novelty, each a number in [0,1]. " +
	"Respond with nothing else."

// Evaluate implements Evaluator. The individual's name is the only persona
// information placed in the prompt.
func (b *BackendEvaluator) Evaluate(ctx context.Context, name string, transcripts []Transcript) (Scores, error) {
	userPrompt := buildJudgePrompt(name, transcripts)

	callCtx, cancel := context.WithTimeout(ctx, judgeTimeout)
	defer cancel()

	var raw string
	err := backend.WithRetry(callCtx, backend.DefaultRetryConfig(), func() error {
		out, genErr := b.Gen.Generate(callCtx, judgeSystemPrompt, userPrompt, backend.GenerateOptions{Temperature: 0, HasTemp: true})
		if genErr != nil {
			return genErr
		}
		raw = out
		return nil
	})
	if err != nil {
		return fallbackScores(), nil
	}

	scores, ok := parseJudgeResponse(raw)
	if !ok {
		return fallbackScores(), nil
	}
	return scores, nil
}

func fallbackScores() Scores {
	return Scores{Engagement: 0.1, Safety: 1.0, Degraded: true}
}

func buildJudgePrompt(name string, transcripts []Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Persona: %s\n\nTranscript excerpts:\n", name)
	for _, t := range transcripts {
		for author, texts := range t.TextsByAuthor {
			for _, text := range texts {
				fmt.Fprintf(&b, "%s: %s\n", author, text)
			}
		}
	}
	return b.String()
}

type judgeResponse struct {
	Engagement          float64 `json:"engagement"`
	ConversationQuality float64 `json:"conversation_quality"`
	Diversity           float64 `json:"diversity"`
	PersonaFidelity     float64 `json:"persona_fidelity"`
	Safety              float64 `json:"safety"`
	SocialIntelligence  float64 `json:"social_intelligence"`
	GoalAchievement     float64 `json:"goal_achievement"`
	Novelty             float64 `json:"novelty"`
}

// parseJudgeResponse accepts a response optionally wrapped in a fenced code
// block (§4.6) and validates every present dimension lies in [0,1].
func parseJudgeResponse(raw string) (Scores, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return Scores{}, false
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return Scores{}, false
	}

	for _, v := range []float64{
		resp.Engagement, resp.ConversationQuality, resp.Diversity, resp.PersonaFidelity,
		resp.Safety, resp.SocialIntelligence, resp.GoalAchievement, resp.Novelty,
	} {
		if v < 0 || v > 1 {
			return Scores{}, false
		}
	}

	return Scores{
		Engagement:          resp.Engagement,
		ConversationQuality: resp.ConversationQuality,
		Diversity:           resp.Diversity,
		PersonaFidelity:     resp.PersonaFidelity,
		Safety:              resp.Safety,
		SocialIntelligence:  resp.SocialIntelligence,
		GoalAchievement:     resp.GoalAchievement,
		Novelty:             resp.Novelty,
	}, true
}
