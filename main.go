package main

import (
	"os"

	"github.com/spigell/form-responder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
