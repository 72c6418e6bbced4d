package evolution

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigJSONAppliesDefaultsAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"population_size": 6,
		"fitness_weights": {"engagement": 2, "safety": 2}
	}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PopulationSize != 6 {
		t.Errorf("expected population_size 6, got %d", cfg.PopulationSize)
	}
	if cfg.Generations != DefaultConfig().Generations {
		t.Errorf("expected default generations to be filled in, got %d", cfg.Generations)
	}
	total := 0.0
	for _, w := range cfg.FitnessWeights {
		total += w
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("expected normalized weights summing to 1, got %v", total)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "population_size: 8\ngenerations: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PopulationSize != 8 || cfg.Generations != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"population_size": -1}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadConfig(path, nil); err == nil {
		t.Fatal("expected an error for an invalid population_size")
	}
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.json", nil); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLoadConfigResolvesFitnessStyle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"fitness_style": "engagement-heavy"}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.FitnessWeights["engagement"] <= cfg.FitnessWeights["diversity"] {
		t.Errorf("expected engagement-heavy preset weights, got %v", cfg.FitnessWeights)
	}
}

func TestLoadConfigExplicitWeightsOverrideFitnessStyle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"fitness_style": "diversity-heavy",
		"fitness_weights": {"engagement": 1, "safety": 1}
	}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, ok := cfg.FitnessWeights["diversity"]; ok {
		t.Errorf("expected explicit fitness_weights to win over fitness_style, got %v", cfg.FitnessWeights)
	}
}

func TestLoadConfigRejectsUnknownFitnessStyle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"fitness_style": "made-up-style"}`), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadConfig(path, nil); err == nil {
		t.Fatal("expected an error for an unknown fitness_style")
	}
}
