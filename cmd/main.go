package main

import (
	"os"

	"github.com/mnemograph/mnemograph/cmd/mnemograph"
)

func main() {
	if err := mnemograph.Execute(); err != nil {
		os.Exit(1)
	}
}
