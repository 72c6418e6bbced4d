// Package store implements the persistence contract of §6: per-generation
// population and transcript files under a run directory, an append-only
// stats log, and the listing/loading operations resume relies on.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/signalnine/personaevolve/genotype"
	"github.com/signalnine/personaevolve/simulation"
)

// Store persists and loads a single run directory's state.
type Store struct {
	RunDir string
}

// New returns a Store rooted at runDir, creating it if necessary.
func New(runDir string) (*Store, error) {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating run directory %s: %w", runDir, err)
	}
	return &Store{RunDir: runDir}, nil
}

func (s *Store) populationPath(gen int) string {
	return filepath.Join(s.RunDir, fmt.Sprintf("gen_%d.json", gen))
}

func (s *Store) transcriptsPath(gen int) string {
	return filepath.Join(s.RunDir, fmt.Sprintf("transcripts_gen_%d.json", gen))
}

func (s *Store) statsPath() string {
	return filepath.Join(s.RunDir, "generation_stats.jsonl")
}

// SavePopulation atomically writes generation gen's population (§6:
// "gen_<N>.json: a JSON array of genotypes").
func (s *Store) SavePopulation(gen int, population []*genotype.Genotype) error {
	return writeAtomic(s.populationPath(gen), population)
}

// LoadPopulation reads generation gen's population.
func (s *Store) LoadPopulation(gen int) ([]*genotype.Genotype, error) {
	var population []*genotype.Genotype
	if err := readJSON(s.populationPath(gen), &population); err != nil {
		return nil, err
	}
	return population, nil
}

// SaveTranscripts atomically writes generation gen's group transcripts.
func (s *Store) SaveTranscripts(gen int, transcripts []*simulation.Transcript) error {
	return writeAtomic(s.transcriptsPath(gen), transcripts)
}

// LoadTranscripts reads generation gen's group transcripts.
func (s *Store) LoadTranscripts(gen int) ([]*simulation.Transcript, error) {
	var transcripts []*simulation.Transcript
	if err := readJSON(s.transcriptsPath(gen), &transcripts); err != nil {
		return nil, err
	}
	return transcripts, nil
}

// AppendStats appends one JSON object per line to generation_stats.jsonl
// under an advisory lock, satisfying §5's "appended under lock, one record
// per line."
func (s *Store) AppendStats(record GenerationStats) error {
	unlock, err := lockFile(s.statsPath() + ".lock")
	if err != nil {
		return fmt.Errorf("store: locking stats log: %w", err)
	}
	defer unlock()

	f, err := os.OpenFile(s.statsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: opening stats log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("store: encoding stats record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("store: appending stats record: %w", err)
	}
	return nil
}

// LoadStats reads every record from generation_stats.jsonl, in persisted
// (chronological) order. Returns an empty slice if the log doesn't exist yet.
func (s *Store) LoadStats() ([]GenerationStats, error) {
	data, err := os.ReadFile(s.statsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: reading stats log: %w", err)
	}

	var records []GenerationStats
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var record GenerationStats
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("store: parsing stats log line: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ListGenerations returns the persisted generation IDs, sorted ascending.
// Per §8's monotonic-persistence property these form a contiguous prefix
// of the integers from 0, but ListGenerations itself just reports what it
// finds — the engine's resume logic is what enforces the prefix invariant.
func (s *Store) ListGenerations() ([]int, error) {
	entries, err := os.ReadDir(s.RunDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: listing run directory: %w", err)
	}

	var gens []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "gen_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		numPart := strings.TrimSuffix(strings.TrimPrefix(name, "gen_"), ".json")
		n, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		gens = append(gens, n)
	}
	sort.Ints(gens)
	return gens, nil
}

// LatestGeneration returns the highest persisted generation ID and true, or
// (0, false) if none are persisted yet.
func (s *Store) LatestGeneration() (int, bool, error) {
	gens, err := s.ListGenerations()
	if err != nil {
		return 0, false, err
	}
	if len(gens) == 0 {
		return 0, false, nil
	}
	return gens[len(gens)-1], true, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("store: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: parsing %s: %w", path, err)
	}
	return nil
}

// writeAtomic marshals v and writes it to path via a temp-file-then-rename,
// so concurrent observers never see a partial file (§5, generalizing the
// checkpoint write of the teacher's evolution/checkpoint.go).
func writeAtomic(path string, v interface{}) error {
	unlock, err := lockFile(path + ".lock")
	if err != nil {
		return fmt.Errorf("store: locking %s: %w", path, err)
	}
	defer unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding %s: %w", path, err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("store: writing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("store: renaming temp file into place for %s: %w", path, err)
	}
	return nil
}
