package configure

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/pkg/xos"
)

type fakeRunner struct {
	calls  []shell.Command
	handle func(cmd shell.Command) int
}

func (f *fakeRunner) Run(_ context.Context, cmd shell.Command) (int, error) {
	f.calls = append(f.calls, cmd)
	if f.handle != nil {
		return f.handle(cmd), nil
	}
	return 0, nil
}

func (f *fakeRunner) count(match func(shell.Command) bool) int {
	n := 0
	for _, c := range f.calls {
		if match(c) {
			n++
		}
	}
	return n
}

func isBuild(cfg Configuration) func(shell.Command) bool {
	return func(c shell.Command) bool {
		return c.Name == "cmake" && len(c.Args) > 0 && c.Args[0] == "--build" &&
			c.Args[len(c.Args)-1] == string(cfg)
	}
}

func isTestBinary(c shell.Command) bool {
	return strings.Contains(filepath.Base(c.Name), "test")
}

type fakeCloner struct {
	calls int
	err   error
}

func (f *fakeCloner) Clone(_ context.Context, _, dir string, progress io.Writer) error {
	f.calls++
	if f.err != nil {
		_, _ = io.WriteString(progress, "fatal: unable to access remote\n")
		return f.err
	}
	return os.MkdirAll(dir, 0o755)
}

// installer simulates cmake_install.cmake by creating the test binary of the
// installed configuration.
func installer(t *testing.T, dir string) func(shell.Command) int {
	return func(cmd shell.Command) int {
		for _, arg := range cmd.Args {
			if cfg, ok := strings.CutPrefix(arg, "-DBUILD_TYPE="); ok {
				out := filepath.Join(dir, "bin", cfg, "Linux")
				if err := os.MkdirAll(out, 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(out, "binbuff_test"), nil, 0o755); err != nil {
					t.Fatal(err)
				}
			}
		}
		return 0
	}
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func newDriver(dir string, runner *fakeRunner, cloner *fakeCloner) *Driver {
	return &Driver{
		Dir:       dir,
		Component: "binbuff",
		DepURL:    "https://github.com/google/googletest.git",
		Platform:  platform.Linux,
		Runner:    runner,
		Cloner:    cloner,
		Out:       io.Discard,
	}
}

func TestParseConfiguration(t *testing.T) {
	for _, s := range []string{"Debug", "Release"} {
		if _, err := ParseConfiguration(s); err != nil {
			t.Errorf("ParseConfiguration(%q) error = %v", s, err)
		}
	}
	for _, s := range []string{"", "release", "RelWithDebInfo"} {
		if _, err := ParseConfiguration(s); err == nil {
			t.Errorf("ParseConfiguration(%q) expected error", s)
		}
	}
}

func TestRun_ReconfigureKeepsCheckout(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "build/CMakeFiles", "bin/Release/Linux", "googletest/googlemock")

	runner := &fakeRunner{}
	runner.handle = installer(t, dir)
	cloner := &fakeCloner{}

	if err := newDriver(dir, runner, cloner).Run(context.Background(), Options{Reconfigure: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !xos.IsDir(filepath.Join(dir, "googletest", "googlemock")) {
		t.Error("reconfigure removed the googletest checkout")
	}
	if cloner.calls != 0 {
		t.Errorf("clone calls = %d, want 0", cloner.calls)
	}
	if xos.IsDir(filepath.Join(dir, "build", "CMakeFiles")) {
		t.Error("old build tree survived reconfigure")
	}
	if xos.IsDir(filepath.Join(dir, "bin", "Release")) {
		t.Error("old bin tree survived reconfigure")
	}
	if n := runner.count(isBuild(Debug)); n != 1 {
		t.Errorf("Debug builds = %d, want 1", n)
	}
	if n := runner.count(isTestBinary); n != 1 {
		t.Errorf("test runs = %d, want 1", n)
	}
}

func TestRun_CleanRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "build", "bin/Debug", "googletest/.git/objects")
	pack := filepath.Join(dir, "googletest", ".git", "objects", "pack-1.idx")
	if err := os.WriteFile(pack, []byte("idx"), 0o444); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	if err := newDriver(dir, runner, &fakeCloner{}).Run(context.Background(), Options{Clean: true}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, name := range []string{"build", "bin", "googletest"} {
		if xos.IsDir(filepath.Join(dir, name)) {
			t.Errorf("%s still exists after clean", name)
		}
	}
	if len(runner.calls) != 0 {
		t.Errorf("clean ran %d commands, want 0", len(runner.calls))
	}
}

func TestRun_ReconfigureAndCleanConflict(t *testing.T) {
	err := newDriver(t.TempDir(), &fakeRunner{}, &fakeCloner{}).
		Run(context.Background(), Options{Reconfigure: true, Clean: true})
	if err == nil {
		t.Fatal("Run() expected error")
	}
}

func TestRun_FirstTimeSetup(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	runner.handle = installer(t, dir)
	cloner := &fakeCloner{}

	if err := newDriver(dir, runner, cloner).Run(context.Background(), Options{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if cloner.calls != 1 {
		t.Errorf("clone calls = %d, want 1", cloner.calls)
	}
	if len(runner.calls) == 0 || runner.calls[0].Args[0] != ".." {
		t.Fatalf("first command = %+v, want cmake ..", runner.calls)
	}
	if got := runner.calls[0].Dir; got != filepath.Join(dir, "build") {
		t.Errorf("generate dir = %q, want build/", got)
	}
	if n := runner.count(isBuild(Debug)); n != 1 {
		t.Errorf("Debug builds = %d, want 1", n)
	}
	if n := runner.count(isTestBinary); n != 1 {
		t.Errorf("test runs = %d, want 1", n)
	}
}

func TestRun_CloneFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	cloner := &fakeCloner{err: errors.New("connection refused")}

	err := newDriver(dir, runner, cloner).Run(context.Background(), Options{Build: Release})
	if err == nil {
		t.Fatal("Run() expected error")
	}
	if len(runner.calls) != 0 {
		t.Errorf("ran %d commands after a failed clone, want 0", len(runner.calls))
	}
}

func TestTest_RecoveryBuildRunsOnce(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "build", "bin", "googletest")

	runner := &fakeRunner{}
	runner.handle = installer(t, dir)

	if err := newDriver(dir, runner, &fakeCloner{}).Run(context.Background(), Options{Test: Release}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := runner.count(isBuild(Release)); n != 1 {
		t.Errorf("Release builds = %d, want exactly 1", n)
	}
	if n := runner.count(isTestBinary); n != 1 {
		t.Errorf("test runs = %d, want 1", n)
	}
}

func TestTest_EscalatesWhenRecoveryProducesNothing(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "build", "bin", "googletest")

	runner := &fakeRunner{}
	err := newDriver(dir, runner, &fakeCloner{}).Test(context.Background(), Release)
	if err == nil {
		t.Fatal("Test() expected error")
	}
	if n := runner.count(isBuild(Release)); n != 1 {
		t.Errorf("Release builds = %d, want exactly 1", n)
	}
	if n := runner.count(isTestBinary); n != 0 {
		t.Errorf("test runs = %d, want 0", n)
	}
}

func TestTest_PicksFirstBinaryByName(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bin", "Release", "Linux")
	mkdirs(t, out, ".")
	for _, name := range []string{"z_test", "binbuff_test", "libbinbuff.a"} {
		if err := os.WriteFile(filepath.Join(out, name), nil, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	runner := &fakeRunner{}
	if err := newDriver(dir, runner, &fakeCloner{}).Test(context.Background(), Release); err != nil {
		t.Fatalf("Test() error = %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(runner.calls))
	}
	if got := filepath.Base(runner.calls[0].Name); got != "binbuff_test" {
		t.Errorf("ran %q, want binbuff_test", got)
	}
	if runner.calls[0].Dir != out {
		t.Errorf("dir = %q, want %q", runner.calls[0].Dir, out)
	}
}

func TestTest_NoBinaryIsReportedOnly(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir, "bin/Release")

	runner := &fakeRunner{}
	if err := newDriver(dir, runner, &fakeCloner{}).Test(context.Background(), Release); err != nil {
		t.Errorf("Test() error = %v, want nil", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(runner.calls))
	}
}

func TestTest_FailingBinary(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bin", "Debug", "Linux")
	mkdirs(t, out, ".")
	if err := os.WriteFile(filepath.Join(out, "binbuff_test"), nil, 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{handle: func(shell.Command) int { return 1 }}
	err := newDriver(dir, runner, &fakeCloner{}).Test(context.Background(), Debug)

	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Test() error = %v, want *shell.ExitError", err)
	}
	if exitErr.Code != 1 {
		t.Errorf("code = %d, want 1", exitErr.Code)
	}
}

func TestBuild_WindowsTargetsAllBuild(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	d := newDriver(dir, runner, &fakeCloner{})
	d.Platform = platform.Windows

	if err := d.Build(context.Background(), Release); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"--build", ".", "--target", "ALL_BUILD", "--config", "Release"}
	if got := runner.calls[0].Args; strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("build args = %v, want %v", got, want)
	}
	install := runner.calls[1].Args
	if install[0] != "-DCOMPONENT=binbuff" || install[1] != "-DBUILD_TYPE=Release" {
		t.Errorf("install args = %v", install)
	}
}

func TestBuild_FailureStopsBeforeInstall(t *testing.T) {
	runner := &fakeRunner{handle: func(shell.Command) int { return 2 }}

	err := newDriver(t.TempDir(), runner, &fakeCloner{}).Build(context.Background(), Debug)
	if err == nil {
		t.Fatal("Build() expected error")
	}
	if len(runner.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(runner.calls))
	}
}
