// ABOUTME: Entry point for the beacon CLI
// ABOUTME: Executes the root command and maps failures to exit status 1

package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
