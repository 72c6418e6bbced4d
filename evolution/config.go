// Package evolution implements the EvolutionEngine of §4.7: the generation
// loop that fans out simulation and evaluation, applies fitness sharing,
// persists results, and reproduces the next population.
package evolution

import (
	"fmt"

	"github.com/signalnine/personaevolve/simulation"
)

// Config is the evolution_config of §4.7/§6. All fields are required with
// defaults; DefaultConfig returns them pre-filled.
type Config struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	EliteCount     int     `json:"elite_count"`
	GroupSize      int     `json:"group_size"`
	ReplyRounds    int     `json:"reply_rounds"`
	MutationRate   float64 `json:"mutation_rate"`

	FitnessWeights map[string]float64 `json:"fitness_weights"`
	FitnessStyle   string             `json:"fitness_style,omitempty"`

	Niching NichingConfig `json:"niching"`

	TournamentSize int `json:"tournament_size"`

	RandomSeed int64 `json:"random_seed"`

	// MergeRemainderGroup controls group assembly (§4.7 step 3): when the
	// population doesn't divide evenly by group_size, false (default)
	// drops the tail remainder; true merges it into the last group.
	MergeRemainderGroup bool `json:"merge_remainder_group,omitempty"`

	// TopicCount is N in §4.7 step 2 (default 5).
	TopicCount int `json:"topic_count,omitempty"`

	// PostMode resolves spec.md §9's open question between "all agents
	// post" (the current architecture, default) and "half the agents
	// post" (an earlier variant, kept for round-tripping older data).
	PostMode string `json:"post_mode,omitempty"`

	// DiversityFloor, when > 0, makes reproduction apply the configured
	// mutator twice per mutation for a generation whose population textual
	// diversity falls below it (§12 "diversity-crisis responsiveness").
	DiversityFloor float64 `json:"diversity_floor,omitempty"`

	// NicknameHook enables the optional post-reproduction backend
	// nickname request of §9; when false (default), or when the request
	// fails or returns a name already taken, the child gets the first name
	// from the name pool not yet used in the next population.
	NicknameHook bool `json:"nickname_hook,omitempty"`

	// EvaluatorKind selects the fitness.Evaluator NewEngine constructs (§9:
	// "concrete variants ... selected once at engine construction from
	// configuration"): "heuristic" (default) is the deterministic,
	// backend-free scorer; "backend" asks the generator to judge each
	// transcript.
	EvaluatorKind string `json:"evaluator_kind,omitempty"`

	// MutatorKind selects the mutation operator the same way: "pool"
	// (default) is the curated-catalog structural mutator; "backend" asks
	// the generator for a variation, falling back to the pool mutator on
	// any parse or transport failure.
	MutatorKind string `json:"mutator_kind,omitempty"`

	// PlateauWindow and PlateauImprovementThreshold size the plateau
	// signal of §12 ("plateau-aware early diagnostics"): how many trailing
	// generations to look back over, and the minimum fractional
	// improvement in fitness_max over that window below which the run is
	// considered plateaued. Informational only — unlike the teacher's
	// PlateauThreshold, it never stops the run early (§4.7 "always runs
	// exactly generations generations").
	PlateauWindow               int     `json:"plateau_window,omitempty"`
	PlateauImprovementThreshold float64 `json:"plateau_improvement_threshold,omitempty"`
}

const (
	EvaluatorHeuristic = "heuristic"
	EvaluatorBackend   = "backend"

	MutatorPool    = "pool"
	MutatorBackend = "backend"
)

// NichingConfig is §4.7's niching block: {sigma ∈ (0,1], alpha > 0}.
type NichingConfig struct {
	Sigma float64 `json:"sigma"`
	Alpha float64 `json:"alpha"`
}

// DefaultConfig returns §4.7's defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 10,
		Generations:    5,
		EliteCount:     2,
		GroupSize:      4,
		ReplyRounds:    3,
		MutationRate:   0.2,
		FitnessWeights: map[string]float64{
			"engagement":           0.35,
			"conversation_quality": 0.35,
			"diversity":            0.20,
			"persona_fidelity":     0.10,
		},
		Niching:        NichingConfig{Sigma: 0.5, Alpha: 1.0},
		TournamentSize: 3,
		PostMode:       simulation.PostAll,
		EvaluatorKind:  EvaluatorHeuristic,
		MutatorKind:    MutatorPool,

		PlateauWindow:               3,
		PlateauImprovementThreshold: 0.005,
	}
}

// Validate fails fast (§7: "configuration error... fail fast exit 2") on the
// invariants §3/§4.7 name: weights summing to a non-positive total, a
// non-positive sigma, or an elite/group count exceeding population size.
func (c *Config) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("evolution: population_size must be positive")
	}
	if c.EliteCount > c.PopulationSize {
		return fmt.Errorf("evolution: elite_count (%d) exceeds population_size (%d)", c.EliteCount, c.PopulationSize)
	}
	if c.GroupSize > c.PopulationSize {
		return fmt.Errorf("evolution: group_size (%d) exceeds population_size (%d)", c.GroupSize, c.PopulationSize)
	}
	if c.Niching.Sigma <= 0 {
		return fmt.Errorf("evolution: niching.sigma must be > 0")
	}
	if c.Niching.Alpha <= 0 {
		return fmt.Errorf("evolution: niching.alpha must be > 0")
	}
	total := 0.0
	for _, w := range c.FitnessWeights {
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("evolution: fitness_weights must sum to a positive total")
	}
	if c.PostMode != "" && c.PostMode != simulation.PostAll && c.PostMode != simulation.PostHalf {
		return fmt.Errorf("evolution: post_mode must be %q or %q, got %q", simulation.PostAll, simulation.PostHalf, c.PostMode)
	}
	if c.EvaluatorKind != "" && c.EvaluatorKind != EvaluatorHeuristic && c.EvaluatorKind != EvaluatorBackend {
		return fmt.Errorf("evolution: evaluator_kind must be %q or %q, got %q", EvaluatorHeuristic, EvaluatorBackend, c.EvaluatorKind)
	}
	if c.MutatorKind != "" && c.MutatorKind != MutatorPool && c.MutatorKind != MutatorBackend {
		return fmt.Errorf("evolution: mutator_kind must be %q or %q, got %q", MutatorPool, MutatorBackend, c.MutatorKind)
	}
	return nil
}

// NormalizeWeights renormalizes fitness_weights so they sum to 1, per §6's
// "weights renormalized if their sum is in (0, ∞)." Call after Validate.
func (c *Config) NormalizeWeights() {
	total := 0.0
	for _, w := range c.FitnessWeights {
		total += w
	}
	if total <= 0 {
		return
	}
	for k, w := range c.FitnessWeights {
		c.FitnessWeights[k] = w / total
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig, per §6's
// "missing keys filled from defaults."
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.PopulationSize == 0 {
		c.PopulationSize = d.PopulationSize
	}
	if c.Generations == 0 {
		c.Generations = d.Generations
	}
	if c.EliteCount == 0 {
		c.EliteCount = d.EliteCount
	}
	if c.GroupSize == 0 {
		c.GroupSize = d.GroupSize
	}
	if c.ReplyRounds == 0 {
		c.ReplyRounds = d.ReplyRounds
	}
	if c.MutationRate == 0 {
		c.MutationRate = d.MutationRate
	}
	if len(c.FitnessWeights) == 0 {
		c.FitnessWeights = d.FitnessWeights
	}
	if c.Niching.Sigma == 0 {
		c.Niching.Sigma = d.Niching.Sigma
	}
	if c.Niching.Alpha == 0 {
		c.Niching.Alpha = d.Niching.Alpha
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = d.TournamentSize
	}
	if c.PostMode == "" {
		c.PostMode = d.PostMode
	}
	if c.EvaluatorKind == "" {
		c.EvaluatorKind = d.EvaluatorKind
	}
	if c.MutatorKind == "" {
		c.MutatorKind = d.MutatorKind
	}
	if c.PlateauWindow == 0 {
		c.PlateauWindow = d.PlateauWindow
	}
	if c.PlateauImprovementThreshold == 0 {
		c.PlateauImprovementThreshold = d.PlateauImprovementThreshold
	}
}
