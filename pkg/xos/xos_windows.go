//go:build windows
// +build windows

// Package xos provides cross-platform atomic file operations.
// On Windows, we use a fallback approach since atomic rename across
// drives is not always possible.
package xos

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to the named file.
// On Windows, this uses a temp file + rename approach within the same directory.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	p, err := NewPendingFile(filename)
	if err != nil {
		return err
	}
	defer p.Cleanup()

	if _, err := p.Write(data); err != nil {
		return err
	}
	if err := p.Chmod(perm); err != nil {
		return err
	}
	return p.CloseAtomically()
}

// PendingFile represents a file that will be written atomically.
type PendingFile struct {
	tempFile *os.File
	tempName string
	path     string
	perm     os.FileMode
	done     bool
}

// NewPendingFile creates a new pending file for atomic writing.
func NewPendingFile(filename string) (*PendingFile, error) {
	dir := filepath.Dir(filename)
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, err
	}
	return &PendingFile{
		tempFile: tempFile,
		tempName: tempFile.Name(),
		path:     filename,
		perm:     0644,
	}, nil
}

// Write writes data to the pending file.
func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// Chmod changes the file mode of the pending file.
func (p *PendingFile) Chmod(perm os.FileMode) error {
	p.perm = perm
	return nil
}

// CloseAtomically completes the write by renaming the temp file.
func (p *PendingFile) CloseAtomically() error {
	if err := p.tempFile.Sync(); err != nil {
		return err
	}

	if err := p.tempFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(p.tempName, p.perm); err != nil {
		return err
	}

	// Remove target if exists
	if _, err := os.Stat(p.path); err == nil {
		if err := os.Remove(p.path); err != nil {
			return err
		}
	}

	if err := os.Rename(p.tempName, p.path); err != nil {
		return err
	}

	p.done = true
	return nil
}

// Cleanup discards the pending file without writing.
func (p *PendingFile) Cleanup() {
	if p.done {
		return
	}
	p.tempFile.Close()
	os.Remove(p.tempName)
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}
