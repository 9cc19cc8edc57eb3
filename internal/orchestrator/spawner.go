package orchestrator

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/binbuff/release-tools/internal/builder"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/pipeline"
	"github.com/binbuff/release-tools/internal/shell"
)

// Job is one pipeline to run.
type Job struct {
	Toolchain builder.Toolchain
	Env       builder.Env
	LogPath   string
	Options   pipeline.Options
	// ConfigPath is the pack.yaml the parent loaded, if any.
	ConfigPath string
}

// Spawner runs a pipeline to completion. Implementations must be safe to
// call from several goroutines.
type Spawner interface {
	Run(ctx context.Context, job Job) pipeline.Result
}

// FuncSpawner adapts a function to the Spawner interface.
type FuncSpawner func(ctx context.Context, job Job) pipeline.Result

// Run calls f(ctx, job).
func (f FuncSpawner) Run(ctx context.Context, job Job) pipeline.Result {
	return f(ctx, job)
}

// InProcess runs pipelines on goroutines of the current process.
var InProcess FuncSpawner = func(ctx context.Context, job Job) pipeline.Result {
	return pipeline.Run(ctx, job.Toolchain, job.Env, job.LogPath, job.Options)
}

// ProcessSpawner runs every pipeline as a "pack pipeline" child process and
// renders the JSON events the child prints on stdout.
type ProcessSpawner struct {
	// Executable is the pack binary, usually os.Executable().
	Executable string
	Runner     shell.Runner
	// Events receives the child events, one Write per line.
	Events io.Writer
	// Stderr receives anything the child prints outside of events.
	Stderr io.Writer
	Debug  bool
}

// Run starts the child and waits for it. A child killed by a signal is
// reported as crashed with exit code -1.
func (s *ProcessSpawner) Run(ctx context.Context, job Job) pipeline.Result {
	start := time.Now()
	result := pipeline.Result{Target: job.Toolchain.Name(), LogPath: job.LogPath}

	args := []string{
		"pipeline", job.Toolchain.Name(),
		"--root", job.Env.Root,
		"--version", job.Env.Version,
		"--events", string(logging.FormatJSON),
	}
	if job.ConfigPath != "" {
		args = append(args, "--config", job.ConfigPath)
	}
	if job.Options.Build {
		args = append(args, "--build")
	}
	if job.Options.Test {
		args = append(args, "--test")
	}
	if s.Debug {
		args = append(args, "--debug")
	}

	stderr := s.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	pr, pw := io.Pipe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = logging.Forward(pr, s.Events)
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
	}()

	code, err := s.Runner.Run(ctx, shell.Command{
		Name:   s.Executable,
		Args:   args,
		Dir:    job.Env.Root,
		Stdout: pw,
		Stderr: stderr,
	})
	_ = pw.Close()
	wg.Wait()

	result.Duration = time.Since(start)
	switch {
	case err != nil:
		result.ExitCode = pipeline.ExitCode(err)
		result.Err = err
	case code < 0:
		result.ExitCode = -1
		result.Crashed = true
	default:
		result.ExitCode = code
		if code == 0 {
			result.Stage = pipeline.Packaged
		}
	}
	return result
}
