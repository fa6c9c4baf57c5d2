// Package version exposes build information for flowpipe binaries.
//
// Version, commit, branch and build time are set at compile time via
// -ldflags and fall back to the VCS stamps recorded by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/flowpipe/version.Version=1.0.0" ./cmd/flowpipe
package version
