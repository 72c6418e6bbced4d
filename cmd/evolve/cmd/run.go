package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/signalnine/personaevolve/backend"
	"github.com/signalnine/personaevolve/evolution"
	"github.com/signalnine/personaevolve/genotype"
	"github.com/signalnine/personaevolve/store"
)

var (
	runSeedsPath string
	runPoolsPath string
	runOutDir    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a fresh evolutionary run",
	Long:  `run starts a fresh run from an evolution_config file, a seed_personas file, and an optional mutation_pools file.`,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSeedsPath, "seeds", "", "seed_personas JSON file (required)")
	runCmd.Flags().StringVar(&runPoolsPath, "pools", "", "mutation_pools JSON file (optional; built-in defaults used if omitted)")
	runCmd.Flags().StringVar(&runOutDir, "out", "", "run directory to persist into (default: a fresh UUID under ./runs)")
	rootCmd.AddCommand(runCmd)
}

func runRun(c *cobra.Command, args []string) error {
	log := newLogger()

	if runSeedsPath == "" {
		return configError(fmt.Errorf("evolve run: --seeds is required"))
	}
	if cfgFile == "" {
		return configError(fmt.Errorf("evolve run: --config is required"))
	}

	cfg, err := evolution.LoadConfig(cfgFile, log)
	if err != nil {
		return configError(err)
	}

	seeds, err := genotype.LoadSeeds(runSeedsPath)
	if err != nil {
		return configError(fmt.Errorf("evolve run: loading seed personas: %w", err))
	}

	var pools *genotype.Pools
	if runPoolsPath != "" {
		pools, err = genotype.LoadPools(runPoolsPath)
		if err != nil {
			return configError(fmt.Errorf("evolve run: loading mutation pools: %w", err))
		}
	}

	if runOutDir == "" {
		runOutDir = "runs/" + uuid.New().String()
	}
	st, err := store.New(runOutDir)
	if err != nil {
		return configError(fmt.Errorf("evolve run: preparing run directory: %w", err))
	}

	gen := backend.NewStubGenerator()
	embedder := backend.NewStubEmbedder(16)

	engine := evolution.NewEngine(cfg, st, gen, embedder, pools, log)

	bar := progressbar.Default(int64(cfg.Generations))
	engine.OnGeneration = func(int) { _ = bar.Add(1) }

	return executeRun(c.Context(), engine, seeds, runOutDir, log)
}

// executeRun installs a SIGINT/SIGTERM handler so a run interrupted
// mid-generation still persists the generations completed so far (§7:
// "interrupted with partial results persisted") before returning the
// appropriate exit code.
func executeRun(ctx context.Context, engine *evolution.Engine, seeds []*genotype.Genotype, runDir string, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		log.Info("interrupt received, finishing in-flight generation then stopping", "run_dir", runDir)
		cancel()
	}()

	err := engine.Run(ctx, seeds)

	if err != nil {
		if ctx.Err() != nil {
			return partialError(fmt.Errorf("evolve run: interrupted: %w", err))
		}
		return backendError(fmt.Errorf("evolve run: %w", err))
	}
	fmt.Printf("run complete: %s\n", runDir)
	return nil
}
