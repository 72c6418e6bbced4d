package evolution

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalnine/personaevolve/fitness"
)

// LoadConfig reads an evolution_config file (§6/§10.2). JSON is the default
// wire format; a `.yaml`/`.yml` suffix dispatches to the YAML decoder
// instead. Missing keys are filled from DefaultConfig, unknown top-level
// keys are warned about and ignored, and fitness_weights are renormalized
// once the file's values are merged in.
func LoadConfig(path string, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("evolution: reading config %s: %w", path, err)
	}

	var raw map[string]interface{}
	var cfg Config
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("evolution: parsing config %s: %w", path, err)
		}
		// Config carries only json tags, so the YAML document is re-encoded
		// as JSON and decoded through the same keys a JSON config uses.
		asJSON, err := json.Marshal(raw)
		if err != nil {
			return Config{}, fmt.Errorf("evolution: decoding config %s: %w", path, err)
		}
		if err := json.Unmarshal(asJSON, &cfg); err != nil {
			return Config{}, fmt.Errorf("evolution: decoding config %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("evolution: parsing config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("evolution: decoding config %s: %w", path, err)
		}
	}

	warnUnknownKeys(log, path, raw)

	if err := resolveFitnessStyle(&cfg); err != nil {
		return Config{}, fmt.Errorf("evolution: invalid config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	cfg.NormalizeWeights()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("evolution: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveFitnessStyle implements §12's fitness style presets: a config that
// sets fitness_style instead of spelling out fitness_weights gets the named
// preset's weights. An explicit fitness_weights block always wins over
// fitness_style. An unknown preset name fails fast (§7 "configuration
// error"), matching Validate's style.
func resolveFitnessStyle(cfg *Config) error {
	if cfg.FitnessStyle == "" || len(cfg.FitnessWeights) > 0 {
		return nil
	}
	weights, ok := fitness.Preset(cfg.FitnessStyle)
	if !ok {
		return fmt.Errorf("unknown fitness_style %q", cfg.FitnessStyle)
	}
	cfg.FitnessWeights = weights
	return nil
}

func isYAML(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// warnUnknownKeys logs each top-level key in raw that doesn't correspond to
// a json tag on Config, per §10.2's "unknown keys are warned and ignored."
func warnUnknownKeys(log *slog.Logger, path string, raw map[string]interface{}) {
	known := configJSONKeys()
	for key := range raw {
		if !known[key] {
			log.Warn("unknown config key ignored", "path", path, "key", key)
		}
	}
}

func configJSONKeys() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}
