// Package operators implements the genetic operators over persona
// genotypes: pool-based and backend-driven mutation, and field-mixing
// crossover.
package operators

import (
	"context"
	"math/rand"
	"sort"

	"github.com/signalnine/personaevolve/genotype"
)

// Mutator applies a single mutation to a copy of g and returns the copy; the
// original is never modified. Concrete variants (pool-based, backend-driven)
// are selected once at engine construction.
type Mutator interface {
	Mutate(ctx context.Context, g *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error)
}

// strategy is one of the five pool-based mutation strategies of §4.2.
type strategy int

const (
	strategyTraitPerturb strategy = iota
	strategyListSwap
	strategyStyleReplace
	strategyAgeShift
	strategyBackstoryEvent
	strategyCount
)

// PoolMutator is the pool-based mutator: each call picks 1 or 2 of the five
// strategies uniformly at random and applies them in order to a clone.
type PoolMutator struct {
	Pools *genotype.Pools
}

// NewPoolMutator returns a PoolMutator backed by pools (falls back to the
// built-in default catalog if pools is nil).
func NewPoolMutator(pools *genotype.Pools) *PoolMutator {
	if pools == nil {
		pools = genotype.DefaultPools()
	}
	return &PoolMutator{Pools: pools}
}

// Mutate implements Mutator. It never errors.
func (m *PoolMutator) Mutate(_ context.Context, g *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error) {
	clone := g.Clone()

	n := 1
	if rng.Intn(2) == 1 {
		n = 2
	}
	chosen := pickStrategies(rng, n)
	for _, s := range chosen {
		m.apply(s, clone, rng)
	}
	return clone, nil
}

func pickStrategies(rng *rand.Rand, n int) []strategy {
	all := []strategy{strategyTraitPerturb, strategyListSwap, strategyStyleReplace, strategyAgeShift, strategyBackstoryEvent}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

func (m *PoolMutator) apply(s strategy, g *genotype.Genotype, rng *rand.Rand) {
	switch s {
	case strategyTraitPerturb:
		m.traitPerturb(g, rng)
	case strategyListSwap:
		m.listSwap(g, rng)
	case strategyStyleReplace:
		m.styleReplace(g, rng)
	case strategyAgeShift:
		m.ageShift(g, rng)
	case strategyBackstoryEvent:
		m.backstoryEvent(g, rng)
	}
}

func (m *PoolMutator) traitPerturb(g *genotype.Genotype, rng *rand.Rand) {
	traits, ok := g.TraitMapAttr(genotype.KeyPersonalityTraits)
	if !ok || len(traits) == 0 {
		return
	}
	key := randomMapKey(rng, traits)
	delta := (rng.Float64()*2 - 1) * 0.15
	v := traits[key] + delta
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	traits[key] = v
	g.SetTraitMap(genotype.KeyPersonalityTraits, traits)
}

var listSwapKeys = []string{genotype.KeyHobbies, genotype.KeyCoreValues, genotype.KeyGoals}

func (m *PoolMutator) listSwap(g *genotype.Genotype, rng *rand.Rand) {
	key := listSwapKeys[rng.Intn(len(listSwapKeys))]
	list, ok := g.StringListAttr(key)
	if !ok || len(list) == 0 {
		return
	}
	pool := m.poolFor(key)
	if len(pool) == 0 {
		return
	}
	removeIdx := rng.Intn(len(list))
	updated := append([]string(nil), list...)
	updated = append(updated[:removeIdx], updated[removeIdx+1:]...)

	present := make(map[string]bool, len(updated))
	for _, v := range updated {
		present[v] = true
	}
	candidates := make([]string, 0, len(pool))
	for _, v := range pool {
		if !present[v] {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		g.SetStringList(key, updated)
		return
	}
	updated = append(updated, candidates[rng.Intn(len(candidates))])
	g.SetStringList(key, updated)
}

func (m *PoolMutator) poolFor(key string) []string {
	switch key {
	case genotype.KeyHobbies:
		return m.Pools.Hobbies
	case genotype.KeyCoreValues:
		return m.Pools.CoreValues
	case genotype.KeyGoals:
		return m.Pools.Goals
	default:
		return nil
	}
}

var styleReplaceKeys = []string{genotype.KeyCommunicationStyle, genotype.KeyTopicalFocus}

func (m *PoolMutator) styleReplace(g *genotype.Genotype, rng *rand.Rand) {
	key := styleReplaceKeys[rng.Intn(len(styleReplaceKeys))]
	current, _ := g.StringAttr(key)
	var pool []string
	if key == genotype.KeyCommunicationStyle {
		pool = m.Pools.CommunicationStyles
	} else {
		pool = m.Pools.TopicalFocuses
	}
	candidates := make([]string, 0, len(pool))
	for _, v := range pool {
		if v != current {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return
	}
	g.SetString(key, candidates[rng.Intn(len(candidates))])
}

func (m *PoolMutator) ageShift(g *genotype.Genotype, rng *rand.Rand) {
	age, ok := g.Age()
	if !ok {
		age = genotype.MinAge
	}
	delta := 1 + rng.Intn(5)
	if rng.Intn(2) == 0 {
		delta = -delta
	}
	g.SetAge(age + delta)
}

func (m *PoolMutator) backstoryEvent(g *genotype.Genotype, rng *rand.Rand) {
	if len(m.Pools.LifeEvents) == 0 {
		return
	}
	event := m.Pools.LifeEvents[rng.Intn(len(m.Pools.LifeEvents))]
	current, _ := g.StringAttr(genotype.KeyBackstory)
	if current == "" {
		g.SetString(genotype.KeyBackstory, event)
		return
	}
	g.SetString(genotype.KeyBackstory, current+" "+event)
}

// Aggressive wraps another Mutator and applies it twice in sequence,
// widening the perturbation for a generation whose population diversity has
// dropped below the configured floor (§12 "diversity-crisis
// responsiveness"), rather than introducing a separate mutation algorithm.
type Aggressive struct {
	Inner Mutator
}

// NewAggressiveMutator wraps inner so each call perturbs twice.
func NewAggressiveMutator(inner Mutator) *Aggressive {
	return &Aggressive{Inner: inner}
}

// Mutate implements Mutator.
func (a *Aggressive) Mutate(ctx context.Context, g *genotype.Genotype, rng *rand.Rand) (*genotype.Genotype, error) {
	once, err := a.Inner.Mutate(ctx, g, rng)
	if err != nil {
		return nil, err
	}
	return a.Inner.Mutate(ctx, once, rng)
}

func randomMapKey(rng *rand.Rand, m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[rng.Intn(len(keys))]
}
