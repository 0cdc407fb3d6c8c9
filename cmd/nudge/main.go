package main

import (
	"os"

	"github.com/jg-phare/nudge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
