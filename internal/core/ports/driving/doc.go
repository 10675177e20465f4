// Package driving provides interfaces for use-case entry points
// (primary/inbound ports). The CLI, HTTP API and TUI adapters depend on
// these, never on concrete services.
package driving
