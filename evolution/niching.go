package evolution

import (
	"math"

	"github.com/signalnine/personaevolve/genotype"
)

// sharingValue is sh(d) = 1 - (d/sigma)^alpha for d<sigma, else 0 (§4.7).
func sharingValue(d, sigma, alpha float64) float64 {
	if d >= sigma {
		return 0
	}
	return 1 - math.Pow(d/sigma, alpha)
}

// ApplyNiching computes each individual's niche count and shared fitness
// in place (§4.7 step 6). niᵢ = Σⱼ sh(d(i,j)) over all j including i; since
// d(i,i)=0 ⇒ sh(0)=1, niᵢ ≥ 1 always, so shared_fitness never divides by
// less than raw_fitness's own contribution.
func ApplyNiching(individuals []*Individual, sigma, alpha float64) {
	n := len(individuals)
	distances := make([][]float64, n)
	for i := range individuals {
		distances[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := genotype.Distance(individuals[i].Genotype, individuals[j].Genotype)
			distances[i][j] = d
			distances[j][i] = d
		}
	}

	for i, ind := range individuals {
		nicheCount := 0.0
		for j := range individuals {
			nicheCount += sharingValue(distances[i][j], sigma, alpha)
		}
		if nicheCount < 1 {
			nicheCount = 1
		}
		ind.SharedFitness = ind.RawFitness / nicheCount
	}
}
