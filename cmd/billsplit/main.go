package main

import (
	"os"

	"github.com/GeorgePPP/bill-splitter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
