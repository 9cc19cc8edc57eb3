// Package platform names the host operating system the way the release
// artifacts and output directories do.
package platform

import (
	"runtime"
	"strings"
)

// Platform is a capitalized OS name such as Linux, Windows or Darwin.
type Platform string

const (
	Linux   Platform = "Linux"
	Windows Platform = "Windows"
	Darwin  Platform = "Darwin"
)

// Current returns the platform of the running binary.
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to its platform name. Unknown systems are
// capitalized as-is.
func FromGOOS(goos string) Platform {
	switch goos {
	case "linux":
		return Linux
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	case "":
		return ""
	}
	return Platform(strings.ToUpper(goos[:1]) + goos[1:])
}

func (p Platform) String() string {
	return string(p)
}

// IsWindows reports whether artifacts follow the Windows naming scheme.
func (p Platform) IsWindows() bool {
	return p == Windows
}
