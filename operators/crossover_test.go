package operators

import (
	"math/rand"
	"testing"

	"github.com/signalnine/personaevolve/genotype"
)

func parentA() *genotype.Genotype {
	g := genotype.New("A")
	g.SetAge(25)
	g.SetString(genotype.KeyOccupation, "nurse")
	g.SetStringList(genotype.KeyCoreValues, []string{"loyalty"})
	g.SetTraitMap(genotype.KeyPersonalityTraits, map[string]float64{"warmth": 0.9})
	g.SetString(genotype.KeyTopicalFocus, "parenting")
	g.SetString(genotype.KeyBackstory, "A's backstory")
	g.SetStringList(genotype.KeyHobbies, []string{"gardening"})
	g.SetString(genotype.KeyCommunicationStyle, "warm and verbose")
	g.SetString(genotype.KeyInteractionPolicy, "engages liberally")
	g.SetStringList(genotype.KeyGoals, []string{"goal-a1", "goal-a2", "goal-a3"})
	g.Set("only_a", genotype.ScalarString("unique-a"))
	g.Set("shared", genotype.ScalarString("from-a"))
	return g
}

func parentB() *genotype.Genotype {
	g := genotype.New("B")
	g.SetAge(55)
	g.SetString(genotype.KeyOccupation, "teacher")
	g.SetStringList(genotype.KeyCoreValues, []string{"ambition"})
	g.SetTraitMap(genotype.KeyPersonalityTraits, map[string]float64{"warmth": 0.1})
	g.SetString(genotype.KeyTopicalFocus, "science")
	g.SetString(genotype.KeyBackstory, "B's backstory")
	g.SetStringList(genotype.KeyHobbies, []string{"chess"})
	g.SetString(genotype.KeyCommunicationStyle, "terse")
	g.SetString(genotype.KeyInteractionPolicy, "avoids arguments")
	g.SetStringList(genotype.KeyGoals, []string{"goal-b1", "goal-b2"})
	g.Set("only_b", genotype.ScalarString("unique-b"))
	g.Set("shared", genotype.ScalarString("from-b"))
	return g
}

func TestCrossoverFieldSources(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	child := Crossover(parentA(), parentB(), genotype.DefaultPools(), rng)

	if occ, _ := child.StringAttr(genotype.KeyOccupation); occ != "nurse" {
		t.Errorf("occupation should always come from A, got %q", occ)
	}
	if style, _ := child.StringAttr(genotype.KeyCommunicationStyle); style != "terse" {
		t.Errorf("communication_style should always come from B, got %q", style)
	}
	if focus, _ := child.StringAttr(genotype.KeyTopicalFocus); focus != "parenting" {
		t.Errorf("topical_focus should always come from A, got %q", focus)
	}
	if backstory, _ := child.StringAttr(genotype.KeyBackstory); backstory != "B's backstory" {
		t.Errorf("backstory should always come from B, got %q", backstory)
	}
}

func TestCrossoverGoalsSplitHalves(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	child := Crossover(parentA(), parentB(), genotype.DefaultPools(), rng)

	goals, ok := child.StringListAttr(genotype.KeyGoals)
	if !ok {
		t.Fatal("expected goals attribute")
	}
	// A has 3 goals -> ceil(3/2) = 2 from A; B has 2 goals -> second half (index 1:) = 1 from B.
	want := []string{"goal-a1", "goal-a2", "goal-b2"}
	if len(goals) != len(want) {
		t.Fatalf("expected %v, got %v", want, goals)
	}
	for i := range want {
		if goals[i] != want[i] {
			t.Errorf("goal %d: expected %q, got %q", i, want[i], goals[i])
		}
	}
}

func TestCrossoverUnknownAttributes(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	child := Crossover(parentA(), parentB(), genotype.DefaultPools(), rng)

	if v, ok := child.StringAttr("only_a"); !ok || v != "unique-a" {
		t.Errorf("expected only_a copied through, got %q (ok=%v)", v, ok)
	}
	if v, ok := child.StringAttr("only_b"); !ok || v != "unique-b" {
		t.Errorf("expected only_b copied through, got %q (ok=%v)", v, ok)
	}
	if v, ok := child.StringAttr("shared"); !ok || v != "from-a" {
		t.Errorf("expected shared key to take A's value, got %q (ok=%v)", v, ok)
	}
}

func TestCrossoverDoesNotModifyParents(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a, b := parentA(), parentB()
	aBefore, bBefore := a.Clone(), b.Clone()

	Crossover(a, b, genotype.DefaultPools(), rng)

	if genotype.Distance(a, aBefore) != 0 {
		t.Error("crossover modified parent A")
	}
	if genotype.Distance(b, bBefore) != 0 {
		t.Error("crossover modified parent B")
	}
}
