// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "runtime/debug"

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/program-catalog-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/program-catalog-go/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/program-catalog-go/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Info is the build metadata reported by /readyz and the CLIs.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Get returns the injected metadata. Without ldflags the VCS revision
// recorded by the Go toolchain is used and the version reads "dev".
func Get() Info {
	info := Info{Version: Version, Commit: Commit, BuildDate: BuildDate}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit != "" {
		return info
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}
