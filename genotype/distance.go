package genotype

import (
	"math"
	"sort"
)

// Distance is the structural genotype distance of §4.4: the arithmetic mean
// of per-field normalized distances over the union of keys present in either
// genotype. Bounded in [0,1], symmetric, zero iff the genotypes are
// attribute-equal.
func Distance(a, b *Genotype) float64 {
	keys := unionKeys(a, b)
	if len(keys) == 0 {
		return 0
	}
	total := 0.0
	for _, k := range keys {
		total += fieldDistance(k, a.Attributes[k], b.Attributes[k])
	}
	return total / float64(len(keys))
}

func unionKeys(a, b *Genotype) []string {
	seen := make(map[string]bool)
	var keys []string
	for k := range a.Attributes {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b.Attributes {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	// A fixed key order makes the floating-point sum in Distance identical
	// for (a, b) and (b, a).
	sort.Strings(keys)
	return keys
}

func fieldDistance(key string, a, b *AttrValue) float64 {
	// A key present on only one side is compared against that kind's
	// zero value, so an absent attribute never blows up the mean.
	kind := KindScalar
	switch {
	case a != nil:
		kind = a.Kind
	case b != nil:
		kind = b.Kind
	}

	switch kind {
	case KindStringList:
		la, _ := a.AsStringList()
		lb, _ := b.AsStringList()
		return jaccardDistance(la, lb)
	case KindTraitMap:
		ma, _ := a.AsTraitMap()
		mb, _ := b.AsTraitMap()
		return traitMapDistance(ma, mb)
	default:
		// Only age gets the normalized-integer treatment (§4.4); it is the
		// one scalar field with a known numeric range (MinAge..MaxAge) to
		// normalize against. Every other scalar — including arbitrary
		// numeric attributes, which AsInt would otherwise floor and falsely
		// equate (0.3 and 0.8 both floor to 0) — is "0 if equal else 1".
		if key == KeyAge {
			ai, aok := a.AsInt()
			bi, bok := b.AsInt()
			if aok && bok {
				return math.Min(1, math.Abs(float64(ai-bi))/62)
			}
		}
		as, _ := a.AsString()
		bs, _ := b.AsString()
		if as == bs {
			return 0
		}
		return 1
	}
}

func jaccardDistance(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[s] = true
	}
	union := make(map[string]bool, len(setA)+len(setB))
	intersection := 0
	for s := range setA {
		union[s] = true
		if setB[s] {
			intersection++
		}
	}
	for s := range setB {
		union[s] = true
	}
	if len(union) == 0 {
		return 0
	}
	return 1 - float64(intersection)/float64(len(union))
}

func traitMapDistance(a, b map[string]float64) float64 {
	union := make(map[string]bool, len(a)+len(b))
	for k := range a {
		union[k] = true
	}
	for k := range b {
		union[k] = true
	}
	if len(union) == 0 {
		return 0
	}
	keys := make([]string, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	total := 0.0
	for _, k := range keys {
		total += math.Min(1, math.Abs(a[k]-b[k]))
	}
	return total / float64(len(union))
}
