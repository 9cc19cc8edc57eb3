package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/pkg/xos"
)

const csharpAssembly = "BinBuff"

// Csharp builds CsBinBuff with the dotnet CLI.
type Csharp struct {
	dir string
}

// NewCsharp creates the C# toolchain.
func NewCsharp(dir string) *Csharp {
	return &Csharp{dir: dir}
}

func (t *Csharp) Name() string    { return "Csharp" }
func (t *Csharp) LogName() string { return "csharp" }
func (t *Csharp) Dir() string     { return t.dir }

func (t *Csharp) project(env *Env) string {
	return env.source(t, csharpAssembly)
}

// Built reports whether BinBuff/bin/Release exists.
func (t *Csharp) Built(env *Env) bool {
	return xos.IsDir(filepath.Join(t.project(env), "bin", "Release"))
}

// Build runs dotnet build -c Release.
func (t *Csharp) Build(ctx context.Context, env *Env) error {
	return env.check(ctx, t.project(env), "dotnet", "build", "-c", "Release")
}

// Test runs dotnet test in the test project.
func (t *Csharp) Test(ctx context.Context, env *Env) error {
	return env.check(ctx, env.source(t, csharpAssembly+".Test"), "dotnet", "test")
}

// Package publishes straight into the staging directory and versions the
// assembly and its symbols.
func (t *Csharp) Package(ctx context.Context, env *Env) error {
	if !t.Built(env) {
		return eris.Wrapf(ErrArtifactMissing, "%s has no Release build", t.project(env))
	}

	err := env.check(ctx, t.project(env), "dotnet", "publish",
		"-c", "Release",
		"-o", env.StageDir,
		"/p:Version="+env.Version,
	)
	if err != nil {
		return &StatusError{Status: "Csharp packaging failed (dotnet publish)", Err: err}
	}

	for _, ext := range []string{".dll", ".pdb"} {
		src := filepath.Join(env.StageDir, csharpAssembly+ext)
		dst := filepath.Join(env.StageDir, fmt.Sprintf("%s-%s%s", csharpAssembly, env.Version, ext))
		if err := os.Rename(src, dst); err != nil {
			return eris.Wrapf(err, "failed to version %s", filepath.Base(src))
		}
	}
	return nil
}

// Clean runs dotnet clean and discards its output.
func (t *Csharp) Clean(ctx context.Context, env *Env) error {
	return shell.Check(ctx, env.Runner, shell.Command{
		Name: "dotnet",
		Args: []string{"clean"},
		Dir:  t.project(env),
	})
}
