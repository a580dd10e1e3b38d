// Command tablevertex packs tables into SDRAM images, runs them on a
// simulated core, and dumps what the core recorded.
package main

import "github.com/sarchlab/tablevertex/cmd/tablevertex/cmd"

func main() {
	cmd.Execute()
}
