package main

import (
	"fmt"
	"os"

	"github.com/binbuff/release-tools/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if !cmd.Silent(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cmd.ExitCode(err))
	}
}
