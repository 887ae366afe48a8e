package main

import (
	"os"

	"github.com/sflowg/blotato/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
