// Package version exposes the build metadata stamped into the binary
// via ldflags at release time.
package version

import (
	"fmt"
	"runtime"
)

// Set by the linker; defaults describe a non-release build.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info is the full build description. It serializes cleanly on both
// the json and yaml output paths.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"git_commit"`
	BuildTime string `json:"buildTime" yaml:"build_time"`
	GoVersion string `json:"goVersion" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get captures the stamped values together with the runtime facts.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short returns just the version tag, e.g. for the --version flag.
func (i Info) Short() string {
	return i.Version
}

func (i Info) String() string {
	return fmt.Sprintf("StackPilot %s (%s) built at %s on %s",
		i.Version, i.GitCommit, i.BuildTime, i.Platform)
}
