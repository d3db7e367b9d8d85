// Package version holds build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, set with -ldflags "-X github.com/Sumatoshi-tech/repometrics/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns the version, preferring ldflags and falling back to the
// module build info for `go install` builds.
func Info() (ver, commit, date string) {
	ver, commit, date = Version, Commit, Date

	if ver != "dev" {
		return ver, commit, date
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ver, commit, date
	}

	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		ver = bi.Main.Version
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "unknown" {
				commit = setting.Value
			}
		case "vcs.time":
			if date == "unknown" {
				date = setting.Value
			}
		}
	}

	return ver, commit, date
}

// String renders Info on one line.
func String() string {
	ver, commit, date := Info()

	return fmt.Sprintf("repometrics %s (commit %s, built %s)", ver, commit, date)
}
