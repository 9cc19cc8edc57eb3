package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/binbuff/release-tools/internal/pipeline"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/pkg/xos"
)

// resetFlags restores the defaults cobra keeps between executions.
func resetFlags(t *testing.T, cmds ...*cobra.Command) {
	t.Helper()
	for _, c := range cmds {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if err := f.Value.Set(f.DefValue); err != nil {
					t.Fatalf("reset --%s: %v", f.Name, err)
				}
				f.Changed = false
			})
		}
	}
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, rootCmd, pipelineCmd, validateCmd, watchCmd, configureCmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	t.Cleanup(func() {
		root.SetOut(nil)
		root.SetErr(nil)
		root.SetArgs(nil)
	})

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"child exit code", &exitError{code: 3}, 3},
		{"missing tool", eris.Wrap(shell.ErrToolNotFound, "cmake"), pipeline.ExitToolNotFound},
		{"other failure", eris.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSilent(t *testing.T) {
	if !Silent(&exitError{code: 1}) {
		t.Error("Silent(exitError) = false")
	}
	if Silent(eris.New("boom")) {
		t.Error("Silent(eris error) = true")
	}
}

func TestValidate_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	writeFile(t, path, "product: BinBuff\nversion: 1.2.3\n")

	out, err := execute(t, rootCmd, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "pack.yaml is valid") {
		t.Errorf("output = %q", out)
	}
}

func TestValidate_SchemaViolations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	writeFile(t, path, "flavour: fast\nversion: v1\n")

	out, err := execute(t, rootCmd, "validate", "--config", path)
	if err == nil {
		t.Fatal("validate expected error")
	}
	if !strings.Contains(out, "1. ") || !strings.Contains(out, "2. ") {
		t.Errorf("violations are not listed: %q", out)
	}
}

func TestValidate_SemanticError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	writeFile(t, path, "release_dir: /tmp/release\n")

	if _, err := execute(t, rootCmd, "validate", "--config", path); err == nil {
		t.Fatal("validate expected error for an absolute release_dir")
	}
}

func TestValidate_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	_, err := execute(t, rootCmd, "validate", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("validate error = %v, want not found", err)
	}
}

func TestPipeline_UnknownTarget(t *testing.T) {
	_, err := execute(t, rootCmd, "pipeline", "Rust", "--root", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unknown target") {
		t.Fatalf("pipeline error = %v, want unknown target", err)
	}
}

func TestPipeline_UnknownEventFormat(t *testing.T) {
	_, err := execute(t, rootCmd, "pipeline", "C", "--root", t.TempDir(), "--events", "xml")
	if err == nil || !strings.Contains(err.Error(), "event format") {
		t.Fatalf("pipeline error = %v, want event format error", err)
	}
}

func TestPipeline_PackagingWithoutBuild(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, rootCmd, "pipeline", "C", "--root", root, "--version", "2.0.0", "--events", "json")
	if code := ExitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1 (err = %v)", code, err)
	}
	if !Silent(err) {
		t.Errorf("pipeline error should be silent: %v", err)
	}
	if !strings.Contains(out, "C - release build unavailable for packaging") {
		t.Errorf("missing packaging event in %q", out)
	}
	if !strings.Contains(out, `"target":"C"`) {
		t.Errorf("event is not JSON with a target field: %q", out)
	}
	if !xos.IsFile(filepath.Join(root, "release", "log", "c_log.txt")) {
		t.Error("log file was not created")
	}
}

func TestConfigure_ReconfigureAndCleanConflict(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, configureCmd, "-r", "-c", "--dir", dir)
	if err == nil {
		t.Fatal("configure expected error for -r -c")
	}
	if !strings.Contains(err.Error(), "reconfigure") || !strings.Contains(err.Error(), "clean") {
		t.Errorf("error = %v, want both flags named", err)
	}
}

func TestConfigure_InvalidConfiguration(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, configureCmd, "-b", "Profile", "--dir", dir)
	if err == nil || !strings.Contains(err.Error(), "invalid --build") {
		t.Fatalf("configure error = %v, want invalid --build", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("configure touched %s before rejecting the flag", dir)
	}
}

func TestLoadProjectFrom_FindsParentConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pack.yaml"), "version: 3.1.4\n")
	sub := filepath.Join(root, "CppBinBuff")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := loadProjectFrom(sub)
	if err != nil {
		t.Fatalf("loadProjectFrom() error = %v", err)
	}
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(p.root)
	if gotRoot != wantRoot {
		t.Errorf("root = %q, want %q", p.root, root)
	}
	if p.config.Version != "3.1.4" {
		t.Errorf("Version = %q, want 3.1.4", p.config.Version)
	}
	if p.configPath == "" {
		t.Error("configPath is empty")
	}
}
