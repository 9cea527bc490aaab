package main

import (
	"os"

	"timeclock/cmd/timeclock/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
