// Package configure drives the CMake lifecycle of the C++ port: googletest
// checkout, project generation, builds, installs and test runs.
package configure

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/internal/vcs"
	"github.com/binbuff/release-tools/pkg/xos"
)

const (
	buildDirName = "build"
	binDirName   = "bin"

	// DefaultDepDir is the checkout directory of the test dependency.
	DefaultDepDir = "googletest"
)

// Configuration is a CMake build type.
type Configuration string

const (
	Debug   Configuration = "Debug"
	Release Configuration = "Release"
)

// ParseConfiguration accepts exactly Debug or Release.
func ParseConfiguration(s string) (Configuration, error) {
	switch c := Configuration(s); c {
	case Debug, Release:
		return c, nil
	}
	return "", eris.Errorf("invalid configuration %q (choose from Debug, Release)", s)
}

// Options select what a driver run does. Build and Test are empty when not
// requested.
type Options struct {
	Reconfigure bool
	Clean       bool
	Build       Configuration
	Test        Configuration
}

// Driver manages build/, bin/ and the googletest checkout of one project.
type Driver struct {
	// Dir is the project directory holding CMakeLists.txt.
	Dir string
	// Component is the CMake install component.
	Component string
	// DepURL is cloned into DepDir when the checkout is missing.
	DepURL string
	DepDir string

	Platform platform.Platform
	Runner   shell.Runner
	Cloner   vcs.Cloner

	// Out receives the output of every tool the driver runs.
	Out    io.Writer
	Logger *zerolog.Logger
}

// Run executes one driver invocation. Test runs before build when both are
// requested.
func (d *Driver) Run(ctx context.Context, opts Options) error {
	if opts.Reconfigure && opts.Clean {
		return eris.New("reconfigure and clean are mutually exclusive")
	}

	if opts.Reconfigure || opts.Clean {
		for _, dir := range []string{d.buildDir(), d.binDir()} {
			if err := xos.RemoveAll(dir); err != nil {
				return eris.Wrapf(err, "failed to remove %s", dir)
			}
		}
	}

	if opts.Clean {
		if err := xos.RemoveAll(d.depDir()); err != nil {
			return eris.Wrapf(err, "failed to remove %s", d.depDir())
		}
		logging.Success(d.logger()).Msg("project cleaned")
		return nil
	}

	if err := os.MkdirAll(d.binDir(), 0o755); err != nil {
		return eris.Wrapf(err, "failed to create %s", d.binDir())
	}

	if !xos.IsDir(d.depDir()) {
		if err := d.clone(ctx); err != nil {
			return err
		}
	}

	if !xos.IsDir(d.buildDir()) {
		if err := d.generate(ctx); err != nil {
			return err
		}
		if err := d.Build(ctx, Debug); err != nil {
			return err
		}
		if err := d.Test(ctx, Debug); err != nil {
			return err
		}
	}

	if opts.Test != "" {
		if err := d.Test(ctx, opts.Test); err != nil {
			return err
		}
	}

	if opts.Build != "" {
		if err := d.Build(ctx, opts.Build); err != nil {
			return err
		}
	}

	return nil
}

// Build compiles cfg and installs the component into bin/<cfg>.
func (d *Driver) Build(ctx context.Context, cfg Configuration) error {
	log := d.logger()
	log.Info().Msgf("building project with %s configuration", cfg)

	args := []string{"--build", "."}
	if d.Platform.IsWindows() {
		args = append(args, "--target", "ALL_BUILD")
	}
	args = append(args, "--config", string(cfg))

	if err := d.run(ctx, "cmake", args...); err != nil {
		log.Error().Err(err).Msgf("%s build failed", cfg)
		return err
	}

	err := d.run(ctx, "cmake",
		"-DCOMPONENT="+d.Component,
		"-DBUILD_TYPE="+string(cfg),
		"-P", "cmake_install.cmake",
	)
	if err != nil {
		log.Error().Err(err).Msgf("%s install failed", cfg)
		return err
	}

	logging.Success(log).Msgf("%s build is complete", cfg)
	return nil
}

// Test runs the test binary of cfg. A missing bin/<cfg> triggers exactly one
// build. Finding no test binary is reported but is not an error.
func (d *Driver) Test(ctx context.Context, cfg Configuration) error {
	log := d.logger()
	log.Info().Msgf("running tests with %s configuration", cfg)

	cfgDir := filepath.Join(d.binDir(), string(cfg))
	if !xos.IsDir(cfgDir) {
		log.Warn().Msgf("%s configuration is unavailable, building in %s configuration now...", cfg, cfg)
		if err := d.Build(ctx, cfg); err != nil {
			return err
		}
		if !xos.IsDir(cfgDir) {
			err := eris.Errorf("%s is still missing after building %s", cfgDir, cfg)
			log.Error().Err(err).Msgf("%s configuration is unavailable", cfg)
			return err
		}
	}

	outDir := filepath.Join(cfgDir, d.Platform.String())
	candidates, err := testBinaries(outDir)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		log.Error().Msg("could not find suitable tests to run")
		return nil
	}
	if len(candidates) > 1 {
		log.Warn().Strs("candidates", candidates).Msgf("several test binaries found, running %s", candidates[0])
	}

	cmd := d.command(filepath.Join(outDir, candidates[0]))
	cmd.Dir = outDir
	if err := shell.Check(ctx, d.Runner, cmd); err != nil {
		log.Error().Err(err).Msgf("%s tests are failing", cfg)
		return err
	}

	logging.Success(log).Msgf("%s tests passed", cfg)
	return nil
}

// testBinaries lists the files of dir whose name contains "test", sorted.
// A missing dir yields no candidates.
func testBinaries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "failed to list %s", dir)
	}

	// os.ReadDir returns entries sorted by name.
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), "test") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (d *Driver) clone(ctx context.Context) error {
	log := d.logger()
	log.Info().Msgf("cloning %s repository", d.depName())

	var output bytes.Buffer
	if err := d.Cloner.Clone(ctx, d.DepURL, d.depDir(), &output); err != nil {
		if output.Len() > 0 {
			log.Error().Msg(strings.TrimSpace(output.String()))
		}
		log.Error().Err(err).Msgf("could not clone %s repository, please make sure you are able to connect to the internet", d.depName())
		return err
	}

	logging.Success(log).Msgf("%s cloned", d.depName())
	return nil
}

func (d *Driver) generate(ctx context.Context) error {
	log := d.logger()
	log.Info().Msg("generating project files")

	if err := os.MkdirAll(d.buildDir(), 0o755); err != nil {
		return eris.Wrapf(err, "failed to create %s", d.buildDir())
	}

	args := []string{".."}
	if d.Platform.IsWindows() {
		args = append(args, "-Dgtest_force_shared_crt=ON")
	}

	if err := d.run(ctx, "cmake", args...); err != nil {
		if eris.Is(err, shell.ErrToolNotFound) {
			log.Error().Err(err).Msg("could not execute cmake generate command, please make sure cmake is installed on this machine")
		} else {
			log.Error().Err(err).Msg("could not generate project files")
		}
		return err
	}

	logging.Success(log).Msg("project files generated")
	return nil
}

// run executes a tool inside build/.
func (d *Driver) run(ctx context.Context, name string, args ...string) error {
	cmd := d.command(name, args...)
	cmd.Dir = d.buildDir()
	return shell.Check(ctx, d.Runner, cmd)
}

func (d *Driver) command(name string, args ...string) shell.Command {
	return shell.Command{
		Name:   name,
		Args:   args,
		Stdout: d.Out,
		Stderr: d.Out,
	}
}

func (d *Driver) buildDir() string {
	return filepath.Join(d.Dir, buildDirName)
}

func (d *Driver) binDir() string {
	return filepath.Join(d.Dir, binDirName)
}

func (d *Driver) depName() string {
	if d.DepDir == "" {
		return DefaultDepDir
	}
	return d.DepDir
}

func (d *Driver) depDir() string {
	return filepath.Join(d.Dir, d.depName())
}

func (d *Driver) logger() *zerolog.Logger {
	if d.Logger == nil {
		return logging.Nop()
	}
	return d.Logger
}
