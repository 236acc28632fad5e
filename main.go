package main

import (
	"os"

	"github.com/BioHazard786/eggcombat/cmd"
	"github.com/BioHazard786/eggcombat/internal/logging"
)

func main() {
	// Initialize logging
	logs := logging.Init()
	err := cmd.Execute()
	logs.Close()
	if err != nil {
		os.Exit(1)
	}
}
