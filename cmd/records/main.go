// main is the entry point of the records application.
//
// STARTUP SEQUENCE:
//  1. Parse flags and pick a subcommand (results or library)
//  2. Load configuration (YAML file, .env, or plain environment)
//  3. Initialise the logger
//  4. For the library: open storage and load books and members
//  5. Run the interactive menu until Exit or end of input
//
// RUNNING:
//
//	go run ./cmd/records library --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/records library
package main

import (
	"os"

	"github.com/aanand-mishra/campus-records/internal/cli"
)

func main() {
	// cobra prints the error itself; we only set the exit code.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
