package main

import (
	"fmt"
	"os"

	"github.com/streed/ml-todos/cmd"
)

// Version is set via ldflags during build
var Version = "dev"

// ml-todos-cli is the same command set without the embedded board UI;
// 'serve' exposes only the JSON API.
func main() {
	cmd.Version = Version

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
