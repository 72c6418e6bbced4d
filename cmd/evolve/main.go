// Command evolve runs and inspects persona-swarm evolutionary runs.
package main

import (
	"os"

	"github.com/signalnine/personaevolve/cmd/evolve/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
