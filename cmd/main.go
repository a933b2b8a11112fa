package main

// Main entry point of the application
// Executes the Cobra root command and maps errors to the exit code

import (
	"fmt"
	"os"

	"tusky-uploader/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
