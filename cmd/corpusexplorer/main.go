// Package main provides the entry point for the corpusexplorer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/corpusexplorer/cmd/corpusexplorer/cmd"
	cerrors "github.com/Aman-CERP/corpusexplorer/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !cmd.IsSilent(err) {
			_, _ = fmt.Fprint(os.Stderr, cerrors.FormatForCLI(err))
		}
		os.Exit(1)
	}
}
