// Package shell runs external build tools as child processes.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/syntax"
)

// ErrToolNotFound is returned when the executable of a command cannot be
// located. It is never retried.
var ErrToolNotFound = eris.New("tool not found")

// Command describes one external tool invocation.
type Command struct {
	// Name is the executable. Names containing a path separator are
	// resolved against Dir.
	Name string
	Args []string
	// Dir is the working directory of the child; empty means the current one.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Line renders the command as a shell-quoted line for logs.
func (c Command) Line() string {
	words := make([]string, 0, len(c.Args)+1)
	for _, w := range append([]string{c.Name}, c.Args...) {
		q, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			q = w
		}
		words = append(words, q)
	}
	return strings.Join(words, " ")
}

// Runner executes commands and reports their exit code.
type Runner interface {
	// Run blocks until the command exits. A launched command that exits
	// non-zero returns its code and a nil error; the error is reserved for
	// commands that could not be started.
	Run(ctx context.Context, cmd Command) (int, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	logger *zerolog.Logger
}

// NewExecRunner creates a runner that logs every invocation at debug level.
func NewExecRunner(logger *zerolog.Logger) *ExecRunner {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ExecRunner{logger: logger}
}

// Run executes the command with the given working directory and sinks.
func (r *ExecRunner) Run(ctx context.Context, c Command) (int, error) {
	path, err := resolve(c.Name, c.Dir)
	if err != nil {
		return -1, err
	}

	r.logger.Debug().Str("dir", c.Dir).Msg(c.Line())

	//nolint:gosec // G204: tools and arguments come from the fixed toolchain definitions
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = orDiscard(c.Stdout)
	cmd.Stderr = orDiscard(c.Stderr)

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, eris.Wrapf(err, "failed to run %s", c.Name)
}

// resolve finds the executable the way a shell would, except that relative
// paths are taken relative to dir instead of the current directory.
func resolve(name, dir string) (string, error) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		path := name
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", eris.Wrapf(err, "failed to resolve %s", name)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", eris.Wrapf(ErrToolNotFound, "%s", abs)
		}
		return abs, nil
	}

	if dir != "" {
		// Windows-style tools shipped next to the project (gradlew.bat).
		local := filepath.Join(dir, name)
		if info, err := os.Stat(local); err == nil && !info.IsDir() && filepath.Ext(name) != "" {
			if abs, err := filepath.Abs(local); err == nil {
				return abs, nil
			}
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", eris.Wrapf(ErrToolNotFound, "%s is not installed or not in PATH", name)
	}
	return path, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
