package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/personaevolve/genotype"
	"github.com/signalnine/personaevolve/simulation"
)

func readStatsFile(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "generation_stats.jsonl"))
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return lines, nil
}

func TestSaveLoadPopulationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	g := genotype.New("Wren")
	g.SetAge(30)
	g.SetStringList(genotype.KeyHobbies, []string{"chess"})
	population := []*genotype.Genotype{g}

	if err := s.SavePopulation(0, population); err != nil {
		t.Fatalf("SavePopulation: %v", err)
	}
	loaded, err := s.LoadPopulation(0)
	if err != nil {
		t.Fatalf("LoadPopulation: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "Wren" {
		t.Fatalf("unexpected population: %+v", loaded)
	}
	if genotype.Distance(g, loaded[0]) != 0 {
		t.Errorf("round-tripped genotype differs: %+v vs %+v", g, loaded[0])
	}
}

func TestSaveLoadTranscripts(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	transcripts := []*simulation.Transcript{
		{Events: []simulation.TranscriptEvent{{Type: simulation.EventPost, Author: "Wren", Content: "hi"}}},
	}
	if err := s.SaveTranscripts(0, transcripts); err != nil {
		t.Fatalf("SaveTranscripts: %v", err)
	}
	loaded, err := s.LoadTranscripts(0)
	if err != nil {
		t.Fatalf("LoadTranscripts: %v", err)
	}
	if len(loaded) != 1 || len(loaded[0].Events) != 1 {
		t.Fatalf("unexpected transcripts: %+v", loaded)
	}
}

func TestListGenerationsContiguousPrefix(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	for i := 0; i < 3; i++ {
		if err := s.SavePopulation(i, []*genotype.Genotype{genotype.New("x")}); err != nil {
			t.Fatalf("SavePopulation(%d): %v", i, err)
		}
	}
	gens, err := s.ListGenerations()
	if err != nil {
		t.Fatalf("ListGenerations: %v", err)
	}
	if len(gens) != 3 || gens[0] != 0 || gens[2] != 2 {
		t.Fatalf("expected [0 1 2], got %v", gens)
	}
}

func TestAppendStatsAppendsOneLinePerRecord(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	for i := 0; i < 2; i++ {
		if err := s.AppendStats(GenerationStats{Generation: i, PopulationSize: 4}); err != nil {
			t.Fatalf("AppendStats: %v", err)
		}
	}

	data, err := readStatsFile(dir)
	if err != nil {
		t.Fatalf("reading stats log: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 stats lines, got %d", len(data))
	}
}

func TestLoadStatsReturnsRecordsInOrder(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	for i := 0; i < 3; i++ {
		if err := s.AppendStats(GenerationStats{Generation: i, PopulationSize: 4}); err != nil {
			t.Fatalf("AppendStats(%d): %v", i, err)
		}
	}

	records, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, r := range records {
		if r.Generation != i {
			t.Errorf("expected record %d to have generation %d, got %d", i, i, r.Generation)
		}
	}
}

func TestLoadStatsOnMissingLogReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, _ := New(dir)

	records, err := s.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats on missing log should not error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
