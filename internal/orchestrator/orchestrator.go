// Package orchestrator runs the four pipelines concurrently, reports their
// outcome and assembles the release archive.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/binbuff/release-tools/internal/archive"
	"github.com/binbuff/release-tools/internal/builder"
	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/pipeline"
	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/internal/workspace"
	"github.com/binbuff/release-tools/pkg/xos"
)

// ErrPipelinesFailed is returned when at least one pipeline exited non-zero.
// The archive is still produced from whatever was staged.
var ErrPipelinesFailed = eris.New("pipelines failed")

// Mode selects what a run does. Clean wins over Build and Test.
type Mode struct {
	Test  bool
	Build bool
	Clean bool
}

// Report is the outcome of a run.
type Report struct {
	Results []pipeline.Result
	// Archive is the path of the release zip, empty in clean mode.
	Archive string
}

// Failed returns the results with a non-zero exit code.
func (r *Report) Failed() []pipeline.Result {
	var failed []pipeline.Result
	for _, res := range r.Results {
		if !res.Success() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Orchestrator owns one release run.
type Orchestrator struct {
	Config   *config.Config
	Layout   workspace.Layout
	Registry *builder.Registry
	Spawner  Spawner
	Runner   shell.Runner
	Platform platform.Platform

	// ConfigPath is forwarded to child processes.
	ConfigPath string

	// Out receives plain lines such as the summary header. It should be the
	// writer behind Logger so lines do not interleave.
	Out    io.Writer
	Logger *zerolog.Logger

	// Progress draws the archiving progress bar; nil hides it.
	Progress io.Writer
}

// Run executes one release run.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*Report, error) {
	log := o.logger()

	if err := o.Layout.Reset(); err != nil {
		return nil, err
	}

	if mode.Clean {
		o.clean(ctx)
		logging.Success(log).Msg("build files cleaned")
		return &Report{}, nil
	}

	if err := o.Layout.Create(o.Registry.Names()); err != nil {
		return nil, err
	}

	opts := pipeline.Options{Build: mode.Build, Test: mode.Test}
	report := &Report{Results: o.runAll(ctx, o.Registry.List(), opts)}
	o.summarize(report.Results)

	path, err := o.archive()
	if err != nil {
		return report, err
	}
	report.Archive = path

	if failed := report.Failed(); len(failed) > 0 {
		return report, eris.Wrapf(ErrPipelinesFailed, "%d of %d pipelines failed", len(failed), len(report.Results))
	}
	return report, nil
}

// Rebuild reruns the pipelines of the named targets into their staging
// directories without touching the rest of the release tree.
func (o *Orchestrator) Rebuild(ctx context.Context, names []string, opts pipeline.Options) ([]pipeline.Result, error) {
	toolchains := make([]builder.Toolchain, 0, len(names))
	for _, name := range names {
		tc, err := o.Registry.Get(name)
		if err != nil {
			return nil, err
		}
		if err := xos.RemoveAll(o.Layout.StageDir(name)); err != nil {
			return nil, eris.Wrapf(err, "failed to reset %s staging directory", name)
		}
		toolchains = append(toolchains, tc)
	}

	if err := o.Layout.Create(names); err != nil {
		return nil, err
	}

	results := o.runAll(ctx, toolchains, opts)
	o.summarize(results)
	return results, nil
}

// runAll starts one pipeline per toolchain and joins all of them. Results
// keep the order of toolchains.
func (o *Orchestrator) runAll(ctx context.Context, toolchains []builder.Toolchain, opts pipeline.Options) []pipeline.Result {
	results := make([]pipeline.Result, len(toolchains))

	var wg sync.WaitGroup
	for i, tc := range toolchains {
		wg.Add(1)
		go func(i int, tc builder.Toolchain) {
			defer wg.Done()
			results[i] = o.Spawner.Run(ctx, Job{
				Toolchain:  tc,
				Env:        o.env(tc),
				LogPath:    o.Layout.LogFile(tc.LogName()),
				Options:    opts,
				ConfigPath: o.ConfigPath,
			})
		}(i, tc)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) summarize(results []pipeline.Result) {
	log := o.logger()
	o.println("--- SUMMARY ---")

	for _, res := range results {
		msg := fmt.Sprintf("%s packaging exited with code %d", res.Target, res.ExitCode)
		if res.Crashed {
			msg += " (terminated)"
		}
		event := log.Error()
		if res.Success() {
			event = logging.Success(log)
		}
		event.Str(logging.TargetField, res.Target).
			Str("stage", res.Stage.String()).
			Dur("duration", res.Duration).
			Msg(msg)
	}
}

// archive merges the staging directories into release/ar, zips them and
// removes release/ar again.
func (o *Orchestrator) archive() (string, error) {
	names := o.Registry.Names()
	stages := make([]archive.Stage, 0, len(names))
	for _, name := range names {
		stages = append(stages, archive.Stage{Name: name, Dir: o.Layout.StageDir(name)})
	}

	mergeDir := o.Layout.MergeDir()
	if err := archive.Merge(mergeDir, stages); err != nil {
		return "", err
	}

	path := o.Layout.ArchivePath(o.Config.Product, o.Platform.String(), o.Config.Version)
	if err := archive.Zip(mergeDir, path, o.Progress); err != nil {
		return "", err
	}

	if err := xos.RemoveAll(mergeDir); err != nil {
		return "", eris.Wrapf(err, "failed to remove %s", mergeDir)
	}

	logging.Success(o.logger()).Msgf("created %s", path)
	return path, nil
}

// clean runs every toolchain's clean step. Failures are reported and do not
// stop the other targets.
func (o *Orchestrator) clean(ctx context.Context) {
	log := o.logger()
	for _, tc := range o.Registry.List() {
		env := o.env(tc)
		env.Log = io.Discard
		if err := tc.Clean(ctx, &env); err != nil {
			log.Warn().Err(err).Str(logging.TargetField, tc.Name()).Msgf("%s clean failed", tc.Name())
		}
	}
}

func (o *Orchestrator) env(tc builder.Toolchain) builder.Env {
	return builder.Env{
		Root:     o.Layout.Root,
		StageDir: o.Layout.StageDir(tc.Name()),
		Version:  o.Config.Version,
		Platform: o.Platform,
		Runner:   o.Runner,
		Logger:   o.Logger,
	}
}

func (o *Orchestrator) println(line string) {
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintln(out, line)
}

func (o *Orchestrator) logger() *zerolog.Logger {
	if o.Logger == nil {
		return logging.Nop()
	}
	return o.Logger
}
