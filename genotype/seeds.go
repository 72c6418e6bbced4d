package genotype

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadSeeds reads a seed_personas JSON file: a JSON array of genotypes (§6).
func LoadSeeds(path string) ([]*Genotype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genotype: reading seed personas %s: %w", path, err)
	}
	var seeds []*Genotype
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("genotype: parsing seed personas %s: %w", path, err)
	}
	if err := ValidateUniqueNames(seeds); err != nil {
		return nil, fmt.Errorf("genotype: %w", err)
	}
	return seeds, nil
}
