package main

import (
	"os"

	"github.com/iota-uz/precinct/pkg/configuration"
)

func main() {
	defer configuration.Use().Unload()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
