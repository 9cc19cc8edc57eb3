package builder

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/pkg/xos"
)

// ErrArtifactMissing is returned by Package when the release build output is
// not there.
var ErrArtifactMissing = eris.New("release build unavailable")

// StatusError replaces the status line a pipeline reports for a failed step.
type StatusError struct {
	Status string
	Err    error
}

func (e *StatusError) Error() string {
	return e.Status + ": " + e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Artifact is a build output copied into the staging directory.
type Artifact struct {
	// Src is the toolchain output.
	Src string
	// Dst is the staging location, with the version in the file name.
	Dst string
	// Tree copies a whole directory.
	Tree bool
}

func (a Artifact) exists() bool {
	if a.Tree {
		return xos.IsDir(a.Src)
	}
	return xos.IsFile(a.Src)
}

// Stage copies artifacts. Nothing is written unless every source exists.
func Stage(artifacts ...Artifact) error {
	for _, a := range artifacts {
		if !a.exists() {
			return eris.Wrapf(ErrArtifactMissing, "%s does not exist", a.Src)
		}
	}

	for _, a := range artifacts {
		var err error
		if a.Tree {
			err = xos.CopyDir(a.Src, a.Dst)
		} else {
			err = xos.CopyFile(a.Src, a.Dst)
		}
		if err != nil {
			return eris.Wrapf(err, "failed to stage %s", a.Src)
		}
	}
	return nil
}

// staticLib returns the file name of the native library and its versioned
// staging name.
func staticLib(p platform.Platform, version string) (string, string) {
	if p.IsWindows() {
		return "binbuff.lib", fmt.Sprintf("binbuff-%s.lib", version)
	}
	return "libbinbuff.a", fmt.Sprintf("libbinbuff-%s.a", version)
}
