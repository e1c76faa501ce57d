package main

import (
	"os"

	"costdelta/cmd"
	"costdelta/internal/estimator"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if estimator.IsInputError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
