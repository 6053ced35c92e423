package main

import (
	"os"

	"github.com/okaines/scout/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
