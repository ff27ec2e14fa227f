// Package app wires configuration, endpoints and orchestrators into the
// fluxmux commands: bridge, pipe, convert and the kafka inspector.
//
// Every command runs as a task with its own run id. Sinks are connected
// before the source starts, SIGINT or SIGTERM cancel the run cleanly, and
// endpoints holding connections are closed by stop hooks once the task
// returns. A short run summary is written to stderr.
package app
