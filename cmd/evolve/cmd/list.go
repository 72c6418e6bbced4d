package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/personaevolve/store"
)

var listCmd = &cobra.Command{
	Use:   "list <run-dir>",
	Short: "List persisted generation IDs in a run directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(c *cobra.Command, args []string) error {
	st, err := store.New(args[0])
	if err != nil {
		return configError(err)
	}
	gens, err := st.ListGenerations()
	if err != nil {
		return configError(err)
	}
	if len(gens) == 0 {
		fmt.Println("no generations persisted")
		return nil
	}
	for _, g := range gens {
		fmt.Println(g)
	}
	return nil
}
