package shell

import (
	"context"
	"fmt"
)

// ExitError reports a tool that started but exited with a non-zero status.
type ExitError struct {
	Line string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Line, e.Code)
}

// Check runs cmd and converts a non-zero exit into an *ExitError.
func Check(ctx context.Context, r Runner, cmd Command) error {
	code, err := r.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Line: cmd.Line(), Code: code}
	}
	return nil
}
