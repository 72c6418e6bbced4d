package evolution

import (
	"github.com/signalnine/personaevolve/compiler"
	"github.com/signalnine/personaevolve/fitness"
	"github.com/signalnine/personaevolve/genotype"
)

// Individual is the Individual of §3: a genotype/phenotype pair plus its
// scores and the two fitness numbers selection operates on.
type Individual struct {
	Genotype      *genotype.Genotype
	Phenotype     compiler.Phenotype
	Scores        fitness.Scores
	RawFitness    float64
	SharedFitness float64
	Evaluated     bool
}

// NewIndividual compiles g's phenotype and returns an unevaluated Individual.
func NewIndividual(g *genotype.Genotype) *Individual {
	return &Individual{Genotype: g, Phenotype: compiler.Compile(g)}
}

// Population is the live generation the engine owns between phases.
type Population struct {
	Individuals []*Individual
	Generation  int
}

// NewPopulation wraps individuals at the given generation index.
func NewPopulation(individuals []*Individual, generation int) *Population {
	return &Population{Individuals: individuals, Generation: generation}
}

// Genotypes returns the population's genotypes, for persistence.
func (p *Population) Genotypes() []*genotype.Genotype {
	out := make([]*genotype.Genotype, len(p.Individuals))
	for i, ind := range p.Individuals {
		out[i] = ind.Genotype
	}
	return out
}

// AverageFitness returns the mean shared fitness across the population.
func (p *Population) AverageFitness() float64 {
	if len(p.Individuals) == 0 {
		return 0
	}
	total := 0.0
	for _, ind := range p.Individuals {
		total += ind.SharedFitness
	}
	return total / float64(len(p.Individuals))
}

// FitnessBounds returns the min and max shared fitness across the
// population.
func (p *Population) FitnessBounds() (min, max float64) {
	if len(p.Individuals) == 0 {
		return 0, 0
	}
	min, max = p.Individuals[0].SharedFitness, p.Individuals[0].SharedFitness
	for _, ind := range p.Individuals[1:] {
		if ind.SharedFitness < min {
			min = ind.SharedFitness
		}
		if ind.SharedFitness > max {
			max = ind.SharedFitness
		}
	}
	return min, max
}
