package simulation

import (
	"github.com/signalnine/personaevolve/compiler"
	"github.com/signalnine/personaevolve/genotype"
)

// Agent wraps a genotype, its compiled phenotype, and a per-episode memory
// buffer of its own actions. Memory is cleared at episode end and is not fed
// back into prompts in the baseline (§4.5).
type Agent struct {
	Genotype  *genotype.Genotype
	Phenotype compiler.Phenotype
	memory    []TranscriptEvent
}

// NewAgent compiles g into a ready-to-run Agent. g is borrowed read-only for
// the lifetime of the episode; the agent never mutates it.
func NewAgent(g *genotype.Genotype) *Agent {
	return &Agent{Genotype: g, Phenotype: compiler.Compile(g)}
}

// Name returns the agent's genotype name.
func (a *Agent) Name() string { return a.Genotype.Name }

// Remember appends e to the agent's per-episode memory.
func (a *Agent) Remember(e TranscriptEvent) {
	a.memory = append(a.memory, e)
}

// ResetMemory clears the per-episode memory buffer.
func (a *Agent) ResetMemory() {
	a.memory = nil
}

// Memory returns a copy of the agent's own actions so far this episode.
func (a *Agent) Memory() []TranscriptEvent {
	return append([]TranscriptEvent(nil), a.memory...)
}
