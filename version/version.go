// Package version exists to allow the version to be overridden at compile
// time via a linker flag.
package version

// Version should be set at build time using:
//   go build -ldflags "-X github.com/m-lab/nagleack/version.Version=$(git describe --tags)"
var Version = "no version"
