// Package builder drives the native toolchain of each binbuff port.
package builder

import (
	"context"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
)

// Toolchain is the interface every language port implements. All steps
// block until the underlying tools exit.
type Toolchain interface {
	// Name returns the target name used for staging dirs (e.g. "Csharp").
	Name() string

	// LogName returns the lower-case name of the target's log file.
	LogName() string

	// Dir returns the source directory relative to the project root.
	Dir() string

	// Built reports whether the release build output exists.
	Built(env *Env) bool

	// Build compiles the release configuration.
	Build(ctx context.Context, env *Env) error

	// Test runs the port's test suite.
	Test(ctx context.Context, env *Env) error

	// Package copies versioned artifacts into env.StageDir. It checks every
	// artifact before writing anything.
	Package(ctx context.Context, env *Env) error

	// Clean removes build output.
	Clean(ctx context.Context, env *Env) error
}

// Env carries everything a toolchain step needs.
type Env struct {
	// Root is the absolute project root.
	Root string

	// StageDir is the absolute staging directory of the target.
	StageDir string

	// Version is embedded in every artifact name.
	Version string

	Platform platform.Platform
	Runner   shell.Runner

	// Log receives the output of the tools.
	Log io.Writer

	Logger *zerolog.Logger
}

func (e *Env) source(t Toolchain, elem ...string) string {
	return filepath.Join(append([]string{e.Root, t.Dir()}, elem...)...)
}

// check runs a tool in dir with its output going to the log.
func (e *Env) check(ctx context.Context, dir, name string, args ...string) error {
	return shell.Check(ctx, e.Runner, shell.Command{
		Name:   name,
		Args:   args,
		Dir:    dir,
		Stdout: e.Log,
		Stderr: e.Log,
	})
}

func (e *Env) logger() *zerolog.Logger {
	if e.Logger == nil {
		return logging.Nop()
	}
	return e.Logger
}
