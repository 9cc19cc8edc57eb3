package builder

import (
	"context"
	"path/filepath"

	"github.com/binbuff/release-tools/pkg/xos"
)

// Java builds JBinBuff with the Gradle wrapper.
type Java struct {
	dir string
}

// NewJava creates the Java toolchain.
func NewJava(dir string) *Java {
	return &Java{dir: dir}
}

func (t *Java) Name() string    { return "Java" }
func (t *Java) LogName() string { return "java" }
func (t *Java) Dir() string     { return t.dir }

func (t *Java) libsDir(env *Env) string {
	return env.source(t, "build", "libs")
}

func gradlew(env *Env) string {
	if env.Platform.IsWindows() {
		return "gradlew.bat"
	}
	return "./gradlew"
}

// Built reports whether build/libs exists.
func (t *Java) Built(env *Env) bool {
	return xos.IsDir(t.libsDir(env))
}

// Build runs gradlew jar.
func (t *Java) Build(ctx context.Context, env *Env) error {
	return env.check(ctx, env.source(t), gradlew(env), "jar")
}

// Test runs gradlew test.
func (t *Java) Test(ctx context.Context, env *Env) error {
	return env.check(ctx, env.source(t), gradlew(env), "test")
}

// Package stages the versioned jar.
func (t *Java) Package(_ context.Context, env *Env) error {
	return Stage(Artifact{
		Src: filepath.Join(t.libsDir(env), "BinBuff.jar"),
		Dst: filepath.Join(env.StageDir, "BinBuff-"+env.Version+".jar"),
	})
}

// Clean removes build/.
func (t *Java) Clean(_ context.Context, env *Env) error {
	return xos.RemoveAll(env.source(t, "build"))
}
