// Package main provides the entry point for the wutag CLI.
package main

import (
	"fmt"
	"os"

	"github.com/wutag/wutag/cmd/wutag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
