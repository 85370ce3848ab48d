package main

import (
	"os"

	"github.com/mmynk/clawback/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
