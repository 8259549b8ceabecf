// Package buildinfo reports the kpz version and the metadata of the
// running binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// version is set at link time for release builds:
//
//	-ldflags "-X github.com/tsukumogami/kpz/internal/buildinfo.version=v1.2.0"
var version string

// Info describes the running binary.
type Info struct {
	Version   string // release tag, or dev[-<hash>[-dirty]]
	Revision  string // full VCS revision, if recorded
	Modified  bool   // built from a dirty tree
	GoVersion string
	Platform  string // GOOS/GOARCH
}

// Read collects build information for the running binary.
func Read() Info {
	info, ok := debug.ReadBuildInfo()
	return fromBuildInfo(info, ok, version)
}

// fromBuildInfo resolves the version in order: link-time override, module
// version from go install, then a dev pseudo-version from VCS settings.
func fromBuildInfo(info *debug.BuildInfo, ok bool, override string) Info {
	bi := Info{
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if !ok || info == nil {
		bi.Version = "unknown"
		if override != "" {
			bi.Version = override
		}
		return bi
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			bi.Revision = setting.Value
		case "vcs.modified":
			bi.Modified = setting.Value == "true"
		}
	}
	if info.GoVersion != "" {
		bi.GoVersion = info.GoVersion
	}

	switch {
	case override != "":
		bi.Version = override
	case info.Main.Version != "" && info.Main.Version != "(devel)":
		bi.Version = info.Main.Version
	default:
		bi.Version = devVersion(bi.Revision, bi.Modified)
	}
	return bi
}

// devVersion returns "dev-<hash>[-dirty]", or "dev" without a revision.
func devVersion(revision string, modified bool) string {
	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "dev-" + revision
	if modified {
		v += "-dirty"
	}
	return v
}

// String formats the info for kpz --version.
func (i Info) String() string {
	return fmt.Sprintf("kpz %s (%s, %s)", i.Version, i.GoVersion, i.Platform)
}

// Version returns the version string for the current build.
func Version() string {
	return Read().Version
}

// UserAgent returns the User-Agent header sent to distribution servers.
func UserAgent() string {
	i := Read()
	return fmt.Sprintf("kpz/%s (%s)", i.Version, i.Platform)
}
