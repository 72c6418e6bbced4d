// Package compiler renders a genotype into the phenotype pair a simulation
// agent runs with: a system prompt (identity/personality) and a policy
// instructions block (goals, topical focus, interaction rule). Compilation
// is pure and deterministic — it never consults the backend and never
// mutates its input.
package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/signalnine/personaevolve/genotype"
)

// Phenotype is the compiled {system_prompt, policy_instructions} pair.
type Phenotype struct {
	SystemPrompt       string
	PolicyInstructions string
}

// recognized is the set of keys folded into the identity/policy blocks
// rather than the generic "Additional Attributes" section.
var recognized = map[string]bool{
	genotype.KeyAge:                true,
	genotype.KeyOccupation:         true,
	genotype.KeyBackstory:          true,
	genotype.KeyCoreValues:         true,
	genotype.KeyHobbies:            true,
	genotype.KeyPersonalityTraits:  true,
	genotype.KeyCommunicationStyle: true,
	genotype.KeyTopicalFocus:       true,
	genotype.KeyInteractionPolicy:  true,
	genotype.KeyGoals:              true,
}

// Compile renders g into a Phenotype. Missing recognized attributes are
// silently skipped; unrecognized attributes are appended verbatim to the
// system prompt's "Additional Attributes" section with a humanized key.
func Compile(g *genotype.Genotype) Phenotype {
	return Phenotype{
		SystemPrompt:       compileSystemPrompt(g),
		PolicyInstructions: compilePolicy(g),
	}
}

func compileSystemPrompt(g *genotype.Genotype) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s", g.Name)

	if age, ok := g.Age(); ok {
		fmt.Fprintf(&b, ", age %d", age)
	}
	if occ, ok := g.StringAttr(genotype.KeyOccupation); ok {
		fmt.Fprintf(&b, ", working as %s", occ)
	}
	b.WriteString(".\n")

	if backstory, ok := g.StringAttr(genotype.KeyBackstory); ok && backstory != "" {
		fmt.Fprintf(&b, "\nBackground: %s\n", backstory)
	}

	if values, ok := g.StringListAttr(genotype.KeyCoreValues); ok && len(values) > 0 {
		fmt.Fprintf(&b, "\nYou hold these core values: %s.\n", strings.Join(values, ", "))
	}

	if hobbies, ok := g.StringListAttr(genotype.KeyHobbies); ok && len(hobbies) > 0 {
		fmt.Fprintf(&b, "\nYour hobbies: %s.\n", strings.Join(hobbies, ", "))
	}

	if traits, ok := g.TraitMapAttr(genotype.KeyPersonalityTraits); ok && len(traits) > 0 {
		b.WriteString("\nPersonality traits (0=low, 1=high):\n")
		for _, k := range sortedKeys(traits) {
			fmt.Fprintf(&b, "- %s: %.2f\n", k, traits[k])
		}
	}

	if style, ok := g.StringAttr(genotype.KeyCommunicationStyle); ok && style != "" {
		fmt.Fprintf(&b, "\nYour communication style is %s.\n", style)
	}

	if extra := additionalAttributes(g); extra != "" {
		b.WriteString("\nAdditional Attributes:\n")
		b.WriteString(extra)
	}

	return b.String()
}

func compilePolicy(g *genotype.Genotype) string {
	var b strings.Builder

	if goals, ok := g.StringListAttr(genotype.KeyGoals); ok && len(goals) > 0 {
		fmt.Fprintf(&b, "Your primary goals: %s.\n", strings.Join(goals, "; "))
	}
	if focus, ok := g.StringAttr(genotype.KeyTopicalFocus); ok && focus != "" {
		fmt.Fprintf(&b, "Steer conversation toward: %s.\n", focus)
	}
	if policy, ok := g.StringAttr(genotype.KeyInteractionPolicy); ok && policy != "" {
		fmt.Fprintf(&b, "Interaction rule: %s.\n", policy)
	}
	b.WriteString("Stay consistent with your persona across the entire episode.\n")

	return b.String()
}

// additionalAttributes renders every unrecognized key in sorted order so
// Compile stays deterministic regardless of map iteration order.
func additionalAttributes(g *genotype.Genotype) string {
	var keys []string
	for _, k := range g.Keys() {
		if !recognized[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v, _ := g.Get(k)
		fmt.Fprintf(&b, "- %s: %s\n", humanize(k), renderValue(v))
	}
	return b.String()
}

func renderValue(v *genotype.AttrValue) string {
	switch v.Kind {
	case genotype.KindStringList:
		list, _ := v.AsStringList()
		return strings.Join(list, ", ")
	case genotype.KindTraitMap:
		traits, _ := v.AsTraitMap()
		var parts []string
		for _, k := range sortedKeys(traits) {
			parts = append(parts, fmt.Sprintf("%s=%.2f", k, traits[k]))
		}
		return strings.Join(parts, ", ")
	default:
		s, _ := v.AsString()
		return s
	}
}

func humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
