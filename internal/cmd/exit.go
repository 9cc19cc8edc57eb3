package cmd

import (
	"errors"
	"fmt"

	"github.com/binbuff/release-tools/internal/pipeline"
)

// exitError ends the process with a given code and no further message. The
// events printed before it already explain the failure.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCode maps an Execute error to the process exit code: 0 on success,
// 127 when a tool is missing and 1 for any other failure.
func ExitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return pipeline.ExitCode(err)
}

// Silent reports whether err was already reported to the user.
func Silent(err error) bool {
	var exitErr *exitError
	return errors.As(err, &exitErr)
}
