//go:build !windows
// +build !windows

// Package xos provides cross-platform atomic file operations.
// It uses atomic rename operations so a crashed run never leaves a
// half-written log, staging file or archive behind.
package xos

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes data to the named file atomically using rename.
// If the file does not exist, WriteFile creates it with permissions perm;
// otherwise WriteFile replaces it.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}

// PendingFile represents a file that will be written atomically.
// Call CloseAtomically to complete the write, or Cleanup to discard.
type PendingFile struct {
	tempFile *renameio.PendingFile
	path     string
}

// NewPendingFile creates a new pending file for atomic writing.
func NewPendingFile(filename string) (*PendingFile, error) {
	t, err := renameio.TempFile("", filename)
	if err != nil {
		return nil, err
	}
	return &PendingFile{
		tempFile: t,
		path:     filename,
	}, nil
}

// Write writes data to the pending file.
func (p *PendingFile) Write(data []byte) (int, error) {
	return p.tempFile.Write(data)
}

// Chmod changes the file mode of the pending file.
func (p *PendingFile) Chmod(perm os.FileMode) error {
	return p.tempFile.Chmod(perm)
}

// CloseAtomically completes the write by atomically renaming the temp file.
func (p *PendingFile) CloseAtomically() error {
	return p.tempFile.CloseAtomicallyReplace()
}

// Cleanup discards the pending file without writing.
// It is a no-op after a successful CloseAtomically.
func (p *PendingFile) Cleanup() {
	_ = p.tempFile.Cleanup()
}

// Path returns the target path of the pending file.
func (p *PendingFile) Path() string {
	return p.path
}
