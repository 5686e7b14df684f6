package main

import (
	"os"

	"github.com/purposenavigator/self-analyzation/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
