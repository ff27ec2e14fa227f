// Package util holds small helpers shared by the fluxmux packages: generic
// pointer and default helpers for config structs, and credential redaction
// for endpoint URIs that end up in logs and run summaries.
package util
