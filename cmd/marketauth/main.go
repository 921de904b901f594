// Package main is the entry point for the marketauth command.
package main

import (
	"os"

	"github.com/tradepost/marketauth/cmd/marketauth/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
