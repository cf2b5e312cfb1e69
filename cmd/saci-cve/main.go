package main

import (
	"os"

	"github.com/senpai-on-fire/saci-database-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
