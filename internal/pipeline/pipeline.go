// Package pipeline runs the build, test and package steps of one target.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/binbuff/release-tools/internal/builder"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/pkg/xos"
)

// ExitToolNotFound is the exit code for a missing toolchain executable.
const ExitToolNotFound = 127

// ErrStillNotBuilt is returned when a recovery build succeeded but left no
// build output behind.
var ErrStillNotBuilt = eris.New("build output still missing after recovery build")

// Options select the optional steps. Package always runs.
type Options struct {
	Build bool
	Test  bool
}

// Result is the outcome of one pipeline.
type Result struct {
	Target   string
	ExitCode int
	// Crashed is set when the pipeline process was killed before reporting.
	Crashed  bool
	Stage    Stage
	LogPath  string
	Duration time.Duration
	Err      error
}

// Success reports whether the pipeline exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// StepError is a failed pipeline step.
type StepError struct {
	Target string
	Step   string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Target, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode maps a pipeline error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case eris.Is(err, shell.ErrToolNotFound):
		return ExitToolNotFound
	default:
		return 1
	}
}

// Run executes START -> [BUILD] -> [TEST] -> PACKAGE for tc. Tool output goes
// to the log file at logPath, which is truncated first. Status events go to
// env.Logger.
func Run(ctx context.Context, tc builder.Toolchain, env builder.Env, logPath string, opts Options) Result {
	start := time.Now()
	name := tc.Name()

	base := env.Logger
	if base == nil {
		base = logging.Nop()
	}
	logger := base.With().Str(logging.TargetField, name).Logger()
	env.Logger = &logger

	result := Result{Target: name, LogPath: logPath}

	logFile, err := os.Create(logPath)
	if err != nil {
		err = &StepError{Target: name, Step: "log", Err: eris.Wrapf(err, "failed to create %s", logPath)}
		logger.Error().Err(err).Msgf("%s log unavailable", name)
		result.Err = err
		result.ExitCode = ExitCode(err)
		result.Duration = time.Since(start)
		return result
	}
	env.Log = logFile

	p := &pipeline{tc: tc, env: &env, logger: &logger}
	result.Stage, result.Err = p.run(ctx, opts)

	if closeErr := logFile.Close(); closeErr != nil && result.Err == nil {
		logger.Warn().Err(closeErr).Msgf("failed to close %s", logPath)
	}

	if result.Err == nil {
		if err := StripANSI(logPath); err != nil {
			logger.Warn().Err(err).Msgf("failed to clean up %s", logPath)
		}
	}

	result.ExitCode = ExitCode(result.Err)
	result.Duration = time.Since(start)
	return result
}

type pipeline struct {
	tc     builder.Toolchain
	env    *builder.Env
	logger *zerolog.Logger
}

func (p *pipeline) run(ctx context.Context, opts Options) (Stage, error) {
	name := p.tc.Name()
	stage := NotBuilt
	if p.tc.Built(p.env) {
		stage = Built
	}

	if opts.Build {
		if err := p.build(ctx); err != nil {
			return stage, err
		}
		stage = Built
	}

	if opts.Test {
		if !p.tc.Built(p.env) {
			p.logger.Warn().Msgf("%s build unavailable, building before testing", name)
			if err := p.build(ctx); err != nil {
				return stage, err
			}
			if !p.tc.Built(p.env) {
				return stage, p.fail("build", fmt.Sprintf("%s build failed", name), ErrStillNotBuilt)
			}
		}
		stage = Built

		p.logger.Info().Msgf("testing %s implementation", name)
		if err := p.tc.Test(ctx, p.env); err != nil {
			return stage, p.fail("test", fmt.Sprintf("%s tests are failing", name), err)
		}
		stage = Tested
	}

	p.logger.Info().Msgf("packaging %s implementation", name)
	if err := p.tc.Package(ctx, p.env); err != nil {
		status := fmt.Sprintf("%s packaging failed", name)
		if eris.Is(err, builder.ErrArtifactMissing) {
			status = fmt.Sprintf("%s - release build unavailable for packaging", name)
		}
		return stage, p.fail("package", status, err)
	}

	return Packaged, nil
}

func (p *pipeline) build(ctx context.Context) error {
	name := p.tc.Name()
	p.logger.Info().Msgf("building %s implementation", name)
	if err := p.tc.Build(ctx, p.env); err != nil {
		return p.fail("build", fmt.Sprintf("%s build failed", name), err)
	}
	return nil
}

// fail reports a failed step. A *builder.StatusError from the toolchain
// replaces the default status line.
func (p *pipeline) fail(step, status string, err error) error {
	var statusErr *builder.StatusError
	if errors.As(err, &statusErr) {
		status = statusErr.Status
	}
	p.logger.Error().Err(err).Msg(status)
	return &StepError{Target: p.tc.Name(), Step: step, Err: err}
}

// StripANSI rewrites a log file without terminal escape sequences. Running it
// on an already clean file leaves the file unchanged.
func StripANSI(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "failed to read %s", path)
	}

	clean := stripansi.Strip(string(data))
	if clean == string(data) {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", path)
	}
	if err := xos.WriteFile(path, []byte(clean), info.Mode().Perm()); err != nil {
		return eris.Wrapf(err, "failed to rewrite %s", path)
	}
	return nil
}
