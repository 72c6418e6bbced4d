package operators

import (
	"math/rand"

	"github.com/signalnine/personaevolve/genotype"
)

// alwaysFromA are the fields §4.3 says always take parent A's value.
var alwaysFromA = []string{
	genotype.KeyOccupation,
	genotype.KeyCoreValues,
	genotype.KeyPersonalityTraits,
	genotype.KeyTopicalFocus,
}

// alwaysFromB are the fields §4.3 says always take parent B's value.
var alwaysFromB = []string{
	genotype.KeyBackstory,
	genotype.KeyHobbies,
	genotype.KeyCommunicationStyle,
	genotype.KeyInteractionPolicy,
}

var specialFields = map[string]bool{
	genotype.KeyAge:   true,
	genotype.KeyGoals: true,
}

func init() {
	for _, k := range alwaysFromA {
		specialFields[k] = true
	}
	for _, k := range alwaysFromB {
		specialFields[k] = true
	}
}

// Crossover constructs a child genotype field-by-field per §4.3. It is pure
// and deterministic given rng; it never reads or writes the backend. The
// child's name is a placeholder drawn from pools — the engine may rename it
// before admitting it to the next population.
func Crossover(a, b *genotype.Genotype, pools *genotype.Pools, rng *rand.Rand) *genotype.Genotype {
	child := genotype.New(placeholderName(pools, rng))

	// age: 50/50 from A or B.
	if age, ok := coinFlipAge(a, b, rng); ok {
		child.SetAge(age)
	}

	for _, k := range alwaysFromA {
		if v, ok := a.Get(k); ok {
			child.Set(k, v.Clone())
		}
	}
	for _, k := range alwaysFromB {
		if v, ok := b.Get(k); ok {
			child.Set(k, v.Clone())
		}
	}

	if goals := crossGoals(a, b); goals != nil {
		child.SetStringList(genotype.KeyGoals, goals)
	}

	copyThrough(a, b, child)

	return child
}

func placeholderName(pools *genotype.Pools, rng *rand.Rand) string {
	if pools == nil || len(pools.Names) == 0 {
		return "child"
	}
	return pools.Names[rng.Intn(len(pools.Names))]
}

func coinFlipAge(a, b *genotype.Genotype, rng *rand.Rand) (int, bool) {
	ageA, okA := a.Age()
	ageB, okB := b.Age()
	switch {
	case okA && okB:
		if rng.Intn(2) == 0 {
			return ageA, true
		}
		return ageB, true
	case okA:
		return ageA, true
	case okB:
		return ageB, true
	default:
		return 0, false
	}
}

// crossGoals concatenates the first ceil(|A|/2) of A's goals with the
// second half of B's goals. Overlap on odd lengths is intentional (§4.3).
func crossGoals(a, b *genotype.Genotype) []string {
	goalsA, okA := a.StringListAttr(genotype.KeyGoals)
	goalsB, okB := b.StringListAttr(genotype.KeyGoals)
	if !okA && !okB {
		return nil
	}
	firstHalf := goalsA[:ceilHalf(len(goalsA))]
	secondHalf := goalsB[len(goalsB)/2:]

	out := make([]string, 0, len(firstHalf)+len(secondHalf))
	out = append(out, firstHalf...)
	out = append(out, secondHalf...)
	return out
}

func ceilHalf(n int) int {
	return (n + 1) / 2
}

// copyThrough handles every attribute not named in the field table: present
// in only one parent copies through; present in both takes A's value.
func copyThrough(a, b, child *genotype.Genotype) {
	seen := make(map[string]bool, len(a.Attributes)+len(b.Attributes))
	for k, v := range a.Attributes {
		if specialFields[k] {
			continue
		}
		seen[k] = true
		child.Set(k, v.Clone())
	}
	for k, v := range b.Attributes {
		if specialFields[k] || seen[k] {
			continue
		}
		child.Set(k, v.Clone())
	}
}
