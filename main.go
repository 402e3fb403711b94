// The main package for the questify executable.
package main

import (
	"github.com/JakeFAU/questify/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
