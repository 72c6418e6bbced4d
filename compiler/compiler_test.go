package compiler

import (
	"strings"
	"testing"

	"github.com/signalnine/personaevolve/genotype"
)

func buildPersona() *genotype.Genotype {
	g := genotype.New("Wren")
	g.SetAge(29)
	g.SetString(genotype.KeyOccupation, "civil engineer")
	g.SetString(genotype.KeyBackstory, "grew up in a port town")
	g.SetStringList(genotype.KeyCoreValues, []string{"honesty", "curiosity"})
	g.SetStringList(genotype.KeyHobbies, []string{"chess"})
	g.SetTraitMap(genotype.KeyPersonalityTraits, map[string]float64{"openness": 0.8})
	g.SetString(genotype.KeyCommunicationStyle, "dry and sarcastic")
	g.SetString(genotype.KeyTopicalFocus, "climate")
	g.SetString(genotype.KeyInteractionPolicy, "engages liberally")
	g.SetStringList(genotype.KeyGoals, []string{"run a marathon"})
	g.Set("favorite_color", genotype.ScalarString("teal"))
	return g
}

func TestCompileIsDeterministic(t *testing.T) {
	g := buildPersona()
	a := Compile(g)
	b := Compile(g.Clone())
	if a.SystemPrompt != b.SystemPrompt || a.PolicyInstructions != b.PolicyInstructions {
		t.Fatal("compile is not deterministic across equal genotypes")
	}
}

func TestCompileIncludesRecognizedFields(t *testing.T) {
	p := Compile(buildPersona())
	for _, want := range []string{"Wren", "age 29", "civil engineer", "port town", "honesty", "chess", "openness", "dry and sarcastic"} {
		if !strings.Contains(p.SystemPrompt, want) {
			t.Errorf("system prompt missing %q:\n%s", want, p.SystemPrompt)
		}
	}
	for _, want := range []string{"run a marathon", "climate", "engages liberally"} {
		if !strings.Contains(p.PolicyInstructions, want) {
			t.Errorf("policy instructions missing %q:\n%s", want, p.PolicyInstructions)
		}
	}
}

func TestCompileAppendsUnknownAttributes(t *testing.T) {
	p := Compile(buildPersona())
	if !strings.Contains(p.SystemPrompt, "Additional Attributes") {
		t.Fatal("expected an Additional Attributes section")
	}
	if !strings.Contains(p.SystemPrompt, "favorite color: teal") {
		t.Errorf("expected humanized unknown key, got:\n%s", p.SystemPrompt)
	}
}

func TestCompileSkipsMissingFields(t *testing.T) {
	g := genotype.New("Soren")
	p := Compile(g)
	if !strings.Contains(p.SystemPrompt, "You are Soren") {
		t.Fatal("expected bare name in system prompt")
	}
	if strings.Contains(p.SystemPrompt, "age") {
		t.Error("did not expect age text for a genotype with no age attribute")
	}
}
