package fitness

// Preset is a named fitness-weight preset: additive sugar over the
// fitness_weights map of §4.7 so a config can say fitness_style instead of
// spelling out every weight. "balanced" matches spec.md's example weights.
func Preset(name string) (map[string]float64, bool) {
	w, ok := presets[name]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out, true
}

var presets = map[string]map[string]float64{
	"balanced": {
		"engagement":           0.35,
		"conversation_quality": 0.35,
		"diversity":            0.20,
		"persona_fidelity":     0.10,
	},
	"engagement-heavy": {
		"engagement":           0.55,
		"conversation_quality": 0.25,
		"diversity":            0.10,
		"persona_fidelity":     0.10,
	},
	"diversity-heavy": {
		"engagement":           0.20,
		"conversation_quality": 0.25,
		"diversity":            0.45,
		"persona_fidelity":     0.10,
	},
	"fidelity-heavy": {
		"engagement":           0.20,
		"conversation_quality": 0.20,
		"diversity":            0.15,
		"persona_fidelity":     0.45,
	},
}
