// Package archive merges the staging directories and compresses them into
// the release zip.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"

	"github.com/binbuff/release-tools/pkg/xos"
)

// Stage is one staging directory that ends up as a top-level archive folder.
type Stage struct {
	Name string
	Dir  string
}

// Merge copies every stage into mergeDir/<Name>. Missing stages are merged as
// empty folders.
func Merge(mergeDir string, stages []Stage) error {
	for _, stage := range stages {
		dst := filepath.Join(mergeDir, stage.Name)
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return eris.Wrapf(err, "failed to create %s", dst)
		}
		if !xos.IsDir(stage.Dir) {
			continue
		}
		if err := xos.CopyDir(stage.Dir, dst); err != nil {
			return eris.Wrapf(err, "failed to merge %s", stage.Name)
		}
	}
	return nil
}

// Zip compresses the contents of srcDir into dest. Entry names are relative
// to srcDir. Progress is drawn on progress unless it is nil or CI=true.
func Zip(srcDir, dest string, progress io.Writer) error {
	var entries []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != srcDir {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "failed to scan %s", srcDir)
	}

	out, err := xos.NewPendingFile(dest)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dest)
	}
	defer out.Cleanup()
	if err := out.Chmod(0o644); err != nil {
		return eris.Wrapf(err, "failed to set permissions of %s", dest)
	}

	bar := newProgressBar(len(entries), progress)
	zw := zip.NewWriter(out)

	for _, path := range entries {
		if err := addEntry(zw, srcDir, path); err != nil {
			return err
		}
		_ = bar.Add(1)
	}

	if err := zw.Close(); err != nil {
		return eris.Wrapf(err, "failed to finish %s", dest)
	}
	if err := out.CloseAtomically(); err != nil {
		return eris.Wrapf(err, "failed to write %s", dest)
	}
	_ = bar.Finish()
	return nil
}

func addEntry(zw *zip.Writer, srcDir, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", path)
	}

	rel, err := filepath.Rel(srcDir, path)
	if err != nil {
		return eris.Wrapf(err, "failed to resolve %s", path)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return eris.Wrapf(err, "failed to describe %s", path)
	}
	header.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		header.Name += "/"
	} else {
		header.Method = zip.Deflate
	}

	w, err := zw.CreateHeader(header)
	if err != nil {
		return eris.Wrapf(err, "failed to add %s", header.Name)
	}
	if info.IsDir() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return eris.Wrapf(err, "failed to compress %s", path)
	}
	return nil
}

func newProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	if w == nil || os.Getenv("CI") == "true" {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("archiving"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
