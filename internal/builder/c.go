package builder

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/binbuff/release-tools/pkg/xos"
)

// C builds CBinBuff with CMake.
type C struct {
	dir string
}

// NewC creates the C toolchain for the given source directory.
func NewC(dir string) *C {
	return &C{dir: dir}
}

func (t *C) Name() string    { return "C" }
func (t *C) LogName() string { return "c" }
func (t *C) Dir() string     { return t.dir }

// outputDir holds the library and the test binary. Multi-config generators
// on Windows add a per-configuration subdirectory.
func (t *C) outputDir(env *Env) string {
	if env.Platform.IsWindows() {
		return env.source(t, "build", "Release")
	}
	return env.source(t, "build")
}

// Built reports whether the build output directory exists.
func (t *C) Built(env *Env) bool {
	return xos.IsDir(t.outputDir(env))
}

// Build generates the build files into build/ and compiles Release.
func (t *C) Build(ctx context.Context, env *Env) error {
	buildDir := env.source(t, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return eris.Wrapf(err, "failed to create %s", buildDir)
	}

	if err := env.check(ctx, buildDir, "cmake", ".."); err != nil {
		return &StatusError{Status: "C configuration failed", Err: err}
	}

	return env.check(ctx, buildDir, "cmake", "--build", ".", "--config", "Release")
}

// Test runs the binbuff_test executable produced by the build.
func (t *C) Test(ctx context.Context, env *Env) error {
	name := "./binbuff_test"
	if env.Platform.IsWindows() {
		name = "binbuff_test.exe"
	}
	return env.check(ctx, t.outputDir(env), name)
}

// Package stages the versioned static library and the public header.
func (t *C) Package(_ context.Context, env *Env) error {
	lib, versioned := staticLib(env.Platform, env.Version)
	return Stage(
		Artifact{
			Src: filepath.Join(t.outputDir(env), lib),
			Dst: filepath.Join(env.StageDir, versioned),
		},
		Artifact{
			Src: env.source(t, "binbuff.h"),
			Dst: filepath.Join(env.StageDir, "binbuff.h"),
		},
	)
}

// Clean removes build/.
func (t *C) Clean(_ context.Context, env *Env) error {
	return xos.RemoveAll(env.source(t, "build"))
}
