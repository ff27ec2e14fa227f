// Package version reports the fluxmux build.
//
// Version, commit, branch and build time are set at link time; commit and
// build time fall back to the VCS stamp Go embeds in the binary.
//
//	go build -ldflags "-X github.com/kbukum/fluxmux/version.Version=1.2.0" ./cmd/fluxmux
package version
