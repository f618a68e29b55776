package buildinfo

import "runtime/debug"

// Set at build time via -ldflags.
var (
	BinaryVersion = "dev"
	GitCommit     = "unknown"
	BuildDate     = "unknown"
)

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}

// Version prefers the ldflags version and falls back to the module version
// for `go install` builds.
func Version() string {
	if BinaryVersion != "dev" {
		return BinaryVersion
	}
	if v := ModuleVersion(); v != "" && v != "(devel)" {
		return v
	}
	return BinaryVersion
}
