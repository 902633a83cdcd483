package main

import (
	"os"

	"github.com/fhirlake-labs/fhirsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
