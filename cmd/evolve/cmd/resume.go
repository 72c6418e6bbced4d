package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/evolution"
	"github.com/signalnine/personaevolve/genotype"
	"github.com/signalnine/personaevolve/store"
)

var resumePoolsPath string

var resumeCmd = &cobra.Command{
	Use:   "resume <run-dir>",
	Short: "Resume an interrupted run",
	Long:  `resume picks up a run directory at its latest persisted generation and continues to evolution_config's generations count (spec.md §4.7 resume semantics).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumePoolsPath, "pools", "", "mutation_pools JSON file (optional)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(c *cobra.Command, args []string) error {
	log := newLogger()
	runDir := args[0]

	if cfgFile == "" {
		return configError(fmt.Errorf("evolve resume: --config is required"))
	}
	cfg, err := evolution.LoadConfig(cfgFile, log)
	if err != nil {
		return configError(err)
	}

	var pools *genotype.Pools
	if resumePoolsPath != "" {
		pools, err = genotype.LoadPools(resumePoolsPath)
		if err != nil {
			return configError(fmt.Errorf("evolve resume: loading mutation pools: %w", err))
		}
	}

	st, err := store.New(runDir)
	if err != nil {
		return configError(fmt.Errorf("evolve resume: opening run directory: %w", err))
	}

	gen := backend.NewStubGenerator()
	embedder := backend.NewStubEmbedder(16)
	engine := evolution.NewEngine(cfg, st, gen, embedder, pools, log)

	bar := progressbar.Default(int64(cfg.Generations))
	engine.OnGeneration = func(int) { _ = bar.Add(1) }

	// Resume never needs seeds: Engine.Run only consults the seed list when
	// the store has no persisted generation at all.
	return executeRun(c.Context(), engine, nil, runDir, log)
}
