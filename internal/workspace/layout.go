// Package workspace describes the on-disk release staging tree.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/pkg/xos"
)

const (
	logDirName   = "log"
	mergeDirName = "ar"
)

// Layout locates the staging directories below the release directory.
type Layout struct {
	// Root is the absolute project root holding the four source trees.
	Root string
	// ReleaseDir is the absolute release staging directory.
	ReleaseDir string
}

// NewLayout creates a layout for root and a release dir relative to it.
func NewLayout(root, releaseDir string) Layout {
	return Layout{
		Root:       root,
		ReleaseDir: filepath.Join(root, releaseDir),
	}
}

// Source returns the absolute path of a source directory.
func (l Layout) Source(dir string) string {
	return filepath.Join(l.Root, dir)
}

// StageDir returns the staging subdirectory of a target.
func (l Layout) StageDir(target string) string {
	return filepath.Join(l.ReleaseDir, target)
}

// LogDir returns the shared log directory.
func (l Layout) LogDir() string {
	return filepath.Join(l.ReleaseDir, logDirName)
}

// LogFile returns the log file of a target, e.g. release/log/c_log.txt.
func (l Layout) LogFile(logName string) string {
	return filepath.Join(l.LogDir(), logName+"_log.txt")
}

// MergeDir returns the transient directory the staging dirs are merged into.
func (l Layout) MergeDir() string {
	return filepath.Join(l.ReleaseDir, mergeDirName)
}

// ArchivePath returns <release>/<product>-<platform>-<version>.zip.
func (l Layout) ArchivePath(product, platform, version string) string {
	return filepath.Join(l.ReleaseDir, fmt.Sprintf("%s-%s-%s.zip", product, platform, version))
}

// Reset deletes the whole release tree. A missing tree is not an error.
func (l Layout) Reset() error {
	rel, err := filepath.Rel(l.Root, l.ReleaseDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return eris.Errorf("refusing to remove %s: not below the project root", l.ReleaseDir)
	}
	if err := xos.RemoveAll(l.ReleaseDir); err != nil {
		return eris.Wrapf(err, "failed to remove %s", l.ReleaseDir)
	}
	return nil
}

// Create makes the log directory and one staging directory per target.
// Existing directories are kept.
func (l Layout) Create(targets []string) error {
	dirs := append([]string{l.LogDir()}, targets...)
	for i, dir := range dirs {
		if i > 0 {
			dir = l.StageDir(dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "failed to create %s", dir)
		}
	}
	return nil
}

// FindRoot finds the project root by looking for pack.yaml in start and its
// parents. Without one, start itself is the root.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrap(err, "failed to resolve project directory")
	}

	for current := dir; ; {
		if _, err := os.Stat(filepath.Join(current, config.FileName)); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return dir, nil
}
