package builder

import (
	"context"
	"path/filepath"

	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/internal/configure"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/vcs"
	"github.com/binbuff/release-tools/pkg/xos"
)

// Cpp builds CppBinBuff through the configure driver.
type Cpp struct {
	dir      string
	settings config.CppConfig
	cloner   vcs.Cloner
}

// NewCpp creates the C++ toolchain.
func NewCpp(dir string, settings config.CppConfig, cloner vcs.Cloner) *Cpp {
	return &Cpp{dir: dir, settings: settings, cloner: cloner}
}

func (t *Cpp) Name() string    { return "Cpp" }
func (t *Cpp) LogName() string { return "cpp" }
func (t *Cpp) Dir() string     { return t.dir }

func (t *Cpp) releaseDir(env *Env) string {
	return env.source(t, "bin", string(configure.Release), env.Platform.String())
}

// Built reports whether bin/Release/<Platform> exists.
func (t *Cpp) Built(env *Env) bool {
	return xos.IsDir(t.releaseDir(env))
}

// Build runs the driver with -b Release.
func (t *Cpp) Build(ctx context.Context, env *Env) error {
	return t.driver(env).Run(ctx, configure.Options{Build: configure.Release})
}

// Test runs the driver with -t Release.
func (t *Cpp) Test(ctx context.Context, env *Env) error {
	return t.driver(env).Run(ctx, configure.Options{Test: configure.Release})
}

// Package stages the versioned static library and the include/ tree.
func (t *Cpp) Package(_ context.Context, env *Env) error {
	lib, versioned := staticLib(env.Platform, env.Version)
	return Stage(
		Artifact{
			Src: filepath.Join(t.releaseDir(env), lib),
			Dst: filepath.Join(env.StageDir, versioned),
		},
		Artifact{
			Src:  env.source(t, "include"),
			Dst:  filepath.Join(env.StageDir, "include"),
			Tree: true,
		},
	)
}

// Clean runs the driver with -c.
func (t *Cpp) Clean(ctx context.Context, env *Env) error {
	return t.driver(env).Run(ctx, configure.Options{Clean: true})
}

// driver writes its status lines, uncolored, into the target log.
func (t *Cpp) driver(env *Env) *configure.Driver {
	logger := logging.New(env.Log, logging.FormatConsole, false)
	return &configure.Driver{
		Dir:       env.source(t),
		Component: t.settings.Component,
		DepURL:    t.settings.GoogletestURL,
		DepDir:    configure.DefaultDepDir,
		Platform:  env.Platform,
		Runner:    env.Runner,
		Cloner:    t.cloner,
		Out:       env.Log,
		Logger:    &logger,
	}
}
