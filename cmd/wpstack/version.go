package main

import (
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
)

// version can be set via ldflags: -ldflags "-X main.version=v1.0.0"
// If not set, getVersion() will try to read from build info (go install @version).
var version = ""

// getVersion returns the version string.
// Priority:
// 1. If version was set via ldflags, use that
// 2. If installed via "go install @version", read from build info
// 3. Otherwise return "dev"
func getVersion() string {
	if v, ok := normalizeVersion(version); ok {
		return v
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if v, ok := normalizeVersion(info.Main.Version); ok {
			return v
		}
	}

	return "dev"
}

// normalizeVersion returns v as "vMAJOR.MINOR.PATCH[-pre][+meta]", or false
// when v is empty or not a semantic version ("(devel)").
func normalizeVersion(v string) (string, bool) {
	if v == "" {
		return "", false
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return "", false
	}
	return "v" + parsed.String(), true
}
