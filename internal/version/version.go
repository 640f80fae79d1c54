package version

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the released version, overridable at build time:
//
//	go build -ldflags "-X github.com/hrygo/ideanote/internal/version.Version=0.3.0"
var Version = "0.3.0"

// DevVersion is reported in dev and demo modes.
var DevVersion = Version + "-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// Canonical returns the semver form of a bare "major.minor.patch" version.
func Canonical(version string) string {
	return semver.Canonical("v" + version)
}

// IsVersionGreaterThan returns true if version is greater than target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > 0
}

// SortVersion sorts bare versions ascending.
type SortVersion []string

func (s SortVersion) Len() int {
	return len(s)
}

func (s SortVersion) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s SortVersion) Less(i, j int) bool {
	return semver.Compare("v"+s[i], "v"+s[j]) == -1
}

// String returns the version with the short commit hash, if known.
func String() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return Version
	}
	short := GitCommit
	if len(short) > 8 {
		short = short[:8]
	}
	return Version + "-" + short
}
