package main

import (
	"os"

	"github.com/stillhq/still/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
