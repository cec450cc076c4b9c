package vcs

import (
	"fmt"
	"runtime/debug"
)

// Revision reports the commit the binary was built from, or "" when the
// toolchain did not stamp VCS information.
func Revision() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	return revisionFrom(buildInfo.Settings)
}

func revisionFrom(settings []debug.BuildSetting) string {
	var revision string
	var modified bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if revision == "" {
		return ""
	}
	if modified {
		return fmt.Sprintf("%s-dirty", revision)
	}

	return revision
}
