// Package driving provides interfaces for inbound adapters (primary ports):
// the CLI commands and the HTTP API drive the pipeline through these.
package driving
