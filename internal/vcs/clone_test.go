package vcs

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestGitCloner_LocalRepository(t *testing.T) {
	// go-git serves file:// remotes through git-upload-pack.
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "CMakeLists.txt"), []byte("project(googletest)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("CMakeLists.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "pack", Email: "pack@example.com"},
	}); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "googletest")
	var progress bytes.Buffer
	if err := (GitCloner{}).Clone(context.Background(), src, dest, &progress); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "CMakeLists.txt")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}
}

func TestGitCloner_FailureRemovesCheckout(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "googletest")

	err := (GitCloner{}).Clone(context.Background(), filepath.Join(t.TempDir(), "missing"), dest, nil)
	if err == nil {
		t.Fatal("Clone() expected error")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Errorf("partial checkout left behind: %v", statErr)
	}
}
