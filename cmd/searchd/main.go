// Package main provides the entry point for the searchd daemon.
package main

import (
	"os"

	"github.com/hideoutdb/searchd/cmd/searchd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
