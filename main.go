// fsmap displays a file hierarchy in FSML.
package main

import "github.com/agentic-research/fsmap/cmd"

func main() {
	cmd.Execute()
}
