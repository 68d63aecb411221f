package main

import (
	"os"

	"github.com/meridianpay/switchyard/cmd/switchyard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
