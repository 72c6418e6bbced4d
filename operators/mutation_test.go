package operators

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/genotype"
)

type stubGenerator struct {
	response string
	err      error
}

func (s stubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts backend.GenerateOptions) (string, error) {
	return s.response, s.err
}

func samplePersona() *genotype.Genotype {
	g := genotype.New("Imani")
	g.SetAge(40)
	g.SetString(genotype.KeyOccupation, "barista")
	g.SetString(genotype.KeyBackstory, "moved to the city after school")
	g.SetStringList(genotype.KeyHobbies, []string{"chess", "hiking"})
	g.SetStringList(genotype.KeyCoreValues, []string{"honesty"})
	g.SetStringList(genotype.KeyGoals, []string{"run a marathon"})
	g.SetTraitMap(genotype.KeyPersonalityTraits, map[string]float64{"openness": 0.5})
	g.SetString(genotype.KeyCommunicationStyle, "blunt")
	g.SetString(genotype.KeyTopicalFocus, "technology")
	return g
}

func TestPoolMutatorDoesNotModifyOriginal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	mutator := NewPoolMutator(genotype.DefaultPools())
	original := samplePersona()
	before := original.Clone()

	mutated, err := mutator.Mutate(context.Background(), original, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mutated == original {
		t.Fatal("expected a distinct clone, got same pointer")
	}
	if genotype.Distance(original, before) != 0 {
		t.Fatal("mutation modified the original genotype")
	}
}

func TestPoolMutatorAgeStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	mutator := NewPoolMutator(genotype.DefaultPools())
	g := genotype.New("edge")
	g.SetAge(genotype.MaxAge)

	for i := 0; i < 50; i++ {
		mutated, _ := mutator.Mutate(context.Background(), g, rng)
		age, ok := mutated.Age()
		if ok && (age < genotype.MinAge || age > genotype.MaxAge) {
			t.Fatalf("age out of bounds: %d", age)
		}
	}
}

func TestBackendMutatorFallsBackOnMalformedResponse(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	fallback := NewPoolMutator(genotype.DefaultPools())
	gen := stubGenerator{response: "not json"}
	mutator := NewBackendMutator(gen, fallback)

	g := samplePersona()
	mutated, err := mutator.Mutate(context.Background(), g, rng)
	if err != nil {
		t.Fatalf("backend mutator must fail open, got error: %v", err)
	}
	if mutated == nil {
		t.Fatal("expected a fallback genotype, got nil")
	}
}

type countingMutator struct {
	calls int
}

func (c *countingMutator) Mutate(_ context.Context, g *genotype.Genotype, _ *rand.Rand) (*genotype.Genotype, error) {
	c.calls++
	clone := g.Clone()
	age, _ := clone.Age()
	clone.SetAge(age + 1)
	return clone, nil
}

func TestAggressiveMutatorAppliesInnerTwice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inner := &countingMutator{}
	aggressive := NewAggressiveMutator(inner)

	g := samplePersona()
	mutated, err := aggressive.Mutate(context.Background(), g, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected inner mutator to be called twice, got %d", inner.calls)
	}

	originalAge, _ := g.Age()
	mutatedAge, _ := mutated.Age()
	if mutatedAge != originalAge+2 {
		t.Errorf("expected age shifted by 2 (one per inner call), got %d (original %d)", mutatedAge, originalAge)
	}
}

func TestAggressiveMutatorPropagatesInnerError(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	gen := stubGenerator{response: "not json"}
	fallback := failingMutator{}
	inner := NewBackendMutator(gen, fallback)
	aggressive := NewAggressiveMutator(inner)

	if _, err := aggressive.Mutate(context.Background(), samplePersona(), rng); err == nil {
		t.Fatal("expected aggressive mutator to propagate the inner mutator's error")
	}
}

type failingMutator struct{}

func (failingMutator) Mutate(_ context.Context, _ *genotype.Genotype, _ *rand.Rand) (*genotype.Genotype, error) {
	return nil, errForcedFailure
}

var errForcedFailure = errors.New("forced failure")

func TestBackendMutatorAcceptsFencedJSON(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	fallback := NewPoolMutator(genotype.DefaultPools())
	gen := stubGenerator{response: "```json\n{\"name\":\"Zeta\",\"attributes\":{}}\n```"}
	mutator := NewBackendMutator(gen, fallback)

	mutated, err := mutator.Mutate(context.Background(), samplePersona(), rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mutated.Name != "Zeta" {
		t.Errorf("expected name Zeta, got %q", mutated.Name)
	}
}
