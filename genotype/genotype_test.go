package genotype

import (
	"encoding/json"
	"testing"
)

func TestAttrValueJSONRoundTrip(t *testing.T) {
	g := New("ava")
	g.SetAge(34)
	g.SetString(KeyOccupation, "nurse")
	g.SetStringList(KeyHobbies, []string{"chess", "hiking"})
	g.SetTraitMap(KeyPersonalityTraits, map[string]float64{"openness": 0.7, "warmth": 0.4})

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Genotype
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	age, ok := decoded.Age()
	if !ok || age != 34 {
		t.Errorf("expected age 34, got %v (ok=%v)", age, ok)
	}
	occ, ok := decoded.StringAttr(KeyOccupation)
	if !ok || occ != "nurse" {
		t.Errorf("expected occupation nurse, got %q (ok=%v)", occ, ok)
	}
	hobbies, ok := decoded.StringListAttr(KeyHobbies)
	if !ok || len(hobbies) != 2 {
		t.Errorf("expected 2 hobbies, got %v (ok=%v)", hobbies, ok)
	}
	traits, ok := decoded.TraitMapAttr(KeyPersonalityTraits)
	if !ok || traits["openness"] != 0.7 {
		t.Errorf("expected openness 0.7, got %v (ok=%v)", traits, ok)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := New("ava")
	g.SetStringList(KeyHobbies, []string{"chess"})

	clone := g.Clone()
	list, _ := clone.StringListAttr(KeyHobbies)
	list[0] = "mutated"

	original, _ := g.StringListAttr(KeyHobbies)
	if original[0] != "chess" {
		t.Fatalf("mutating clone's list affected original: %v", original)
	}
}

func TestDistanceProperties(t *testing.T) {
	a := New("a")
	a.SetAge(30)
	a.SetStringList(KeyHobbies, []string{"chess", "hiking"})
	a.SetTraitMap(KeyPersonalityTraits, map[string]float64{"openness": 0.5})

	b := New("b")
	b.SetAge(40)
	b.SetStringList(KeyHobbies, []string{"chess", "pottery"})
	b.SetTraitMap(KeyPersonalityTraits, map[string]float64{"openness": 0.9})

	if d := Distance(a, a); d != 0 {
		t.Errorf("d(a,a) = %v, want 0", d)
	}
	dab := Distance(a, b)
	dba := Distance(b, a)
	if dab != dba {
		t.Errorf("distance not symmetric: d(a,b)=%v d(b,a)=%v", dab, dba)
	}
	if dab < 0 || dab > 1 {
		t.Errorf("distance out of bounds: %v", dab)
	}
}

func TestDistanceUnknownKeysPreserved(t *testing.T) {
	a := New("a")
	a.Set("favorite_color", ScalarString("teal"))
	b := New("b")

	d := Distance(a, b)
	if d != 1 {
		t.Errorf("expected distance 1 for single differing unknown key, got %v", d)
	}
}

func TestDistanceDistinguishesUnequalFloatScalars(t *testing.T) {
	a := New("a")
	a.Set("trust_score", ScalarFloat(0.3))
	b := New("b")
	b.Set("trust_score", ScalarFloat(0.8))

	if d := Distance(a, b); d != 1 {
		t.Errorf("expected distance 1 for unequal non-age float scalars, got %v", d)
	}

	c := New("c")
	c.Set("trust_score", ScalarFloat(0.3))
	if d := Distance(a, c); d != 0 {
		t.Errorf("expected distance 0 for equal non-age float scalars, got %v", d)
	}
}

func TestValidateUniqueNames(t *testing.T) {
	pop := []*Genotype{New("a"), New("b"), New("a")}
	if err := ValidateUniqueNames(pop); err == nil {
		t.Fatal("expected duplicate-name error")
	}
}
