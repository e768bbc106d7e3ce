// Package version resolves the module version and toolchain information the
// Go linker embeds into the binary, for the health endpoint's version field.
package version

import (
	"runtime/debug"
	"strings"
)

// modulePath is the module this binary is built from.
const modulePath = "github.com/scality/utapi"

// GetUtapiVersion returns the version of the utapi module being run: the
// release tag when built from a tagged checkout or pulled in as a
// dependency, "dev" for an untagged build, and "unknown" when no build info
// is embedded.
func GetUtapiVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Path == modulePath || strings.HasPrefix(info.Path, modulePath+"/") {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
		return "dev"
	}

	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			if dep.Replace != nil {
				return dep.Replace.Version + " (replaced)"
			}
			return dep.Version
		}
	}
	return "unknown"
}

// GoVersion returns the Go toolchain version the binary was built with.
func GoVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	return info.GoVersion
}
