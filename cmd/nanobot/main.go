package main

import (
	"os"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/cmd/nanobot/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
