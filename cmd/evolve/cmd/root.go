// Package cmd implements the evolve CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/personaevolve/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command (§10.3): persistent --config/--verbose flags,
// focused subcommands, in the shape of openagent's cmd/openagent/cmd tree.
var rootCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Evolve a population of social-media personas",
	Long: `evolve runs genetic evolution over a population of social-media
personas: each generation, groups of agents post and reply to a shared
topic, get scored by a fitness evaluator, and reproduce via tournament
selection, crossover, and mutation with fitness sharing to preserve
diversity.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "evolution_config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command and returns the process exit code per
// spec.md §7: 0 normal, 2 configuration error, 3 unrecoverable backend
// error, 4 interrupted with partial results persisted.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, exitErr.err)
		return exitErr.code
	}

	// A plain cobra usage/parse error (unknown flag, missing arg) is a
	// configuration error in spec.md's taxonomy.
	fmt.Fprintln(os.Stderr, err)
	return 2
}

// exitError pairs an error with the spec.md §7 exit code it should produce.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error  { return &exitError{code: 2, err: err} }
func backendError(err error) error { return &exitError{code: 3, err: err} }
func partialError(err error) error { return &exitError{code: 4, err: err} }

func newLogger() *slog.Logger {
	return logging.New(verbose)
}
