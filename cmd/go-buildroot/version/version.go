// Package version exposes the build version of the binary.
package version

import "runtime/debug"

// Version is stamped at build time via -ldflags, falling back to module
// build info under go install.
var Version = "dev"

func init() {
	if Version != "dev" {
		return
	}
	if inf, ok := debug.ReadBuildInfo(); ok && inf.Main.Version != "" && inf.Main.Version != "(devel)" {
		Version = inf.Main.Version
	}
}
