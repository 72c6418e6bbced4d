package genotype

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind tags the shape an AttrValue holds.
type Kind uint8

const (
	KindScalar Kind = iota
	KindStringList
	KindTraitMap
)

// AttrValue is a tagged-variant attribute value: a scalar (string, float64,
// int, or bool), an ordered list of strings, or a mapping from string to
// trait intensity in [0,1]. The concrete shape is sniffed from JSON on
// decode, so the genotype schema never needs named record fields per
// attribute and unknown keys round-trip untouched.
type AttrValue struct {
	Kind     Kind
	Scalar   interface{}
	List     []string
	TraitMap map[string]float64
}

// ScalarString wraps a plain string scalar.
func ScalarString(s string) *AttrValue { return &AttrValue{Kind: KindScalar, Scalar: s} }

// ScalarInt wraps an integer scalar.
func ScalarInt(i int) *AttrValue { return &AttrValue{Kind: KindScalar, Scalar: float64(i)} }

// ScalarFloat wraps a floating-point scalar.
func ScalarFloat(f float64) *AttrValue { return &AttrValue{Kind: KindScalar, Scalar: f} }

// ScalarBool wraps a boolean scalar.
func ScalarBool(b bool) *AttrValue { return &AttrValue{Kind: KindScalar, Scalar: b} }

// StringList wraps an ordered sequence of strings.
func StringList(values []string) *AttrValue {
	return &AttrValue{Kind: KindStringList, List: append([]string(nil), values...)}
}

// TraitMap wraps a string-to-[0,1] trait mapping.
func TraitMap(traits map[string]float64) *AttrValue {
	out := make(map[string]float64, len(traits))
	for k, v := range traits {
		out[k] = v
	}
	return &AttrValue{Kind: KindTraitMap, TraitMap: out}
}

// Clone returns a deep copy.
func (v *AttrValue) Clone() *AttrValue {
	if v == nil {
		return nil
	}
	out := &AttrValue{Kind: v.Kind, Scalar: v.Scalar}
	if v.List != nil {
		out.List = append([]string(nil), v.List...)
	}
	if v.TraitMap != nil {
		out.TraitMap = make(map[string]float64, len(v.TraitMap))
		for k, t := range v.TraitMap {
			out.TraitMap[k] = t
		}
	}
	return out
}

// AsString returns the scalar as a string, converting numeric/bool scalars.
func (v *AttrValue) AsString() (string, bool) {
	if v == nil || v.Kind != KindScalar {
		return "", false
	}
	switch s := v.Scalar.(type) {
	case string:
		return s, true
	case float64:
		return fmt.Sprintf("%g", s), true
	case bool:
		return fmt.Sprintf("%t", s), true
	default:
		return "", false
	}
}

// AsInt returns the scalar floored to an int, if numeric.
func (v *AttrValue) AsInt() (int, bool) {
	if v == nil || v.Kind != KindScalar {
		return 0, false
	}
	f, ok := v.Scalar.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// AsFloat returns the scalar as a float64, if numeric.
func (v *AttrValue) AsFloat() (float64, bool) {
	if v == nil || v.Kind != KindScalar {
		return 0, false
	}
	f, ok := v.Scalar.(float64)
	return f, ok
}

// AsBool returns the scalar as a bool, if boolean.
func (v *AttrValue) AsBool() (bool, bool) {
	if v == nil || v.Kind != KindScalar {
		return false, false
	}
	b, ok := v.Scalar.(bool)
	return b, ok
}

// AsStringList returns the string-list payload.
func (v *AttrValue) AsStringList() ([]string, bool) {
	if v == nil || v.Kind != KindStringList {
		return nil, false
	}
	return v.List, true
}

// AsTraitMap returns the trait-map payload.
func (v *AttrValue) AsTraitMap() (map[string]float64, bool) {
	if v == nil || v.Kind != KindTraitMap {
		return nil, false
	}
	return v.TraitMap, true
}

// MarshalJSON emits the underlying shape directly: a JSON scalar, array, or
// object, with no wrapper — that is the wire format seed_personas and
// gen_<N>.json both use.
func (v *AttrValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindStringList:
		return json.Marshal(v.List)
	case KindTraitMap:
		return json.Marshal(v.TraitMap)
	default:
		return json.Marshal(v.Scalar)
	}
}

// UnmarshalJSON sniffs the shape of the incoming value and tags it
// accordingly: an array decodes as a string list, an object as a trait map,
// anything else as a scalar.
func (v *AttrValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("genotype: empty attribute value")
	}
	switch trimmed[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("genotype: decoding string-list attribute: %w", err)
		}
		v.Kind = KindStringList
		v.List = list
		return nil
	case '{':
		var traits map[string]float64
		if err := json.Unmarshal(trimmed, &traits); err != nil {
			return fmt.Errorf("genotype: decoding trait-map attribute: %w", err)
		}
		v.Kind = KindTraitMap
		v.TraitMap = traits
		return nil
	default:
		var scalar interface{}
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return fmt.Errorf("genotype: decoding scalar attribute: %w", err)
		}
		v.Kind = KindScalar
		v.Scalar = scalar
		return nil
	}
}
