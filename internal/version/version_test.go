package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetCapturesRuntimeFacts(t *testing.T) {
	info := Get()

	if info.GoVersion != runtime.Version() {
		t.Errorf("expected go version %s, got %s", runtime.Version(), info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("unexpected platform %s", info.Platform)
	}
}

func TestStringCarriesStampedValues(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	Version, GitCommit = "1.2.3", "abc1234"
	defer func() { Version, GitCommit = oldVersion, oldCommit }()

	info := Get()
	s := info.String()
	if !strings.HasPrefix(s, "StackPilot 1.2.3") {
		t.Errorf("unexpected version string %q", s)
	}
	if !strings.Contains(s, "abc1234") {
		t.Errorf("version string missing commit: %q", s)
	}
	if info.Short() != "1.2.3" {
		t.Errorf("unexpected short form %q", info.Short())
	}
}
