// The main package for the falcongraph executable.
package main

import (
	"github.com/falcongraph/crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
