package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags "-X cardboard/internal/version.Version=..." at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsDev reports whether this is an unreleased build.
func (b BuildInfo) IsDev() bool { return b.Version == "dev" }

// GetVersionString returns a formatted version string
func GetVersionString() string {
	info := GetBuildInfo()
	if info.IsDev() {
		return fmt.Sprintf("cardboard %s (%s) built with %s on %s",
			info.Version, info.Commit, info.GoVersion, info.Platform)
	}
	return fmt.Sprintf("cardboard %s (%s) built on %s with %s for %s",
		info.Version, info.Commit, info.Date, info.GoVersion, info.Platform)
}

// GetShortVersion returns just the version number
func GetShortVersion() string {
	return Version
}

// UserAgent identifies this client to the board server.
func UserAgent() string {
	return fmt.Sprintf("cardboard/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}
