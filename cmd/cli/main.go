package main

import (
	"os"

	"github.com/trainlog-dev/trainlog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
