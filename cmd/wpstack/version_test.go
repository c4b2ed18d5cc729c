package main

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	version := getVersion()

	// Version should not be empty
	if version == "" {
		t.Error("getVersion() returned empty string")
	}

	// When running tests (not via go install), version should be "dev"
	// or a valid semver when installed via go install @version
	if version != "dev" && !strings.HasPrefix(version, "v") {
		t.Errorf("getVersion() = %q, want 'dev' or 'vX.Y.Z'", version)
	}
}

func TestGetVersion_Ldflags(t *testing.T) {
	old := version
	defer func() { version = old }()

	version = "1.4.0"
	if got := getVersion(); got != "v1.4.0" {
		t.Errorf("getVersion() = %q, want v1.4.0", got)
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"v1.2.3", "v1.2.3", true},
		{"1.2.3", "v1.2.3", true},
		{"v0.3.0-rc.1", "v0.3.0-rc.1", true},
		{"v1.2", "v1.2.0", true},
		{"(devel)", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizeVersion(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizeVersion(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
