package main

import (
	"os"

	"github.com/solatis/filtertree/cmd/filtertree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
