package store

import "time"

// AgentStats is one entry of a GenerationStats record's "agents" array (§6).
type AgentStats struct {
	Name                string  `json:"name"`
	Engagement          float64 `json:"engagement"`
	ConversationQuality float64 `json:"conversation_quality"`
	Diversity           float64 `json:"diversity"`
	PersonaFidelity     float64 `json:"persona_fidelity"`
	Safety              float64 `json:"safety"`
	SocialIntelligence  float64 `json:"social_intelligence,omitempty"`
	GoalAchievement     float64 `json:"goal_achievement,omitempty"`
	Novelty             float64 `json:"novelty,omitempty"`
	RawFitness          float64 `json:"raw_fitness"`
	SharedFitness       float64 `json:"shared_fitness"`
	Degraded            bool    `json:"degraded,omitempty"`
}

// GenerationStats is one line of generation_stats.jsonl (§6).
type GenerationStats struct {
	Timestamp           time.Time    `json:"timestamp"`
	Generation          int          `json:"generation"`
	PopulationSize      int          `json:"population_size"`
	PopulationDiversity float64      `json:"population_diversity"`
	FitnessMean         float64      `json:"fitness_mean"`
	FitnessMax          float64      `json:"fitness_max"`
	FitnessMin          float64      `json:"fitness_min"`
	DegradedCalls       int          `json:"degraded_calls,omitempty"`
	PlateauSignal       bool         `json:"plateau_signal,omitempty"`
	Agents              []AgentStats `json:"agents"`
}
