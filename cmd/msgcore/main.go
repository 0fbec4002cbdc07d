package main

import (
	"os"

	"msgcore/cmd/msgcore/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
