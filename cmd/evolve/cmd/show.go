package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signalnine/personaevolve/store"
)

var showCmd = &cobra.Command{
	Use:   "show <run-dir> <generation>",
	Short: "Dump a generation's population and stats summary",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(c *cobra.Command, args []string) error {
	gen, err := strconv.Atoi(args[1])
	if err != nil {
		return configError(fmt.Errorf("evolve show: generation must be an integer: %w", err))
	}

	st, err := store.New(args[0])
	if err != nil {
		return configError(err)
	}

	population, err := st.LoadPopulation(gen)
	if err != nil {
		return configError(fmt.Errorf("evolve show: loading generation %d: %w", gen, err))
	}

	fmt.Printf("generation %d: %d individuals\n", gen, len(population))
	for _, g := range population {
		fmt.Printf("  - %s\n", g.Name)
	}

	records, err := st.LoadStats()
	if err != nil {
		return configError(fmt.Errorf("evolve show: loading stats: %w", err))
	}
	for _, r := range records {
		if r.Generation != gen {
			continue
		}
		fmt.Printf("\nfitness: mean=%.4f min=%.4f max=%.4f diversity=%.4f degraded_calls=%d\n",
			r.FitnessMean, r.FitnessMin, r.FitnessMax, r.PopulationDiversity, r.DegradedCalls)
		for _, a := range r.Agents {
			fmt.Printf("  - %-12s raw=%.4f shared=%.4f\n", a.Name, a.RawFitness, a.SharedFitness)
		}
		break
	}

	return nil
}
