// Package misc provides build and identity information helpers.
package misc

import (
	"runtime/debug"
)

const appName = "idg"

// These are normally set by the linker during release builds.
var (
	version = "dev"
	gitHash = ""
)

// GetAppName returns short program name used for temporary files, logs and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns program version as set at build time or module version
// when installed with "go install".
func GetVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// GetGitHash returns vcs revision recorded in the binary if any.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return gitHash
}
