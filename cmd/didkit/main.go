package main

import (
	"os"

	"didkit/cmd/didkit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
