// Package vcs fetches third-party source checkouts.
package vcs

import (
	"context"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/rotisserie/eris"
)

// Cloner clones a repository into a directory.
type Cloner interface {
	Clone(ctx context.Context, url, dir string, progress io.Writer) error
}

// GitCloner clones with go-git, so no git executable is required.
type GitCloner struct{}

// Clone checks out the default branch of url into dir. A failed attempt
// leaves no partial checkout behind.
func (GitCloner) Clone(ctx context.Context, url, dir string, progress io.Writer) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      url,
		Progress: progress,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return eris.Wrapf(err, "failed to clone %s", url)
	}
	return nil
}
