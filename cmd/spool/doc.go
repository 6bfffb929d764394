// Package main implements the spool command line interface.
//
// The CLI fronts the render pipeline for one-shot use: it loads
// configuration, runs full renders, generates subtitle overlays on their
// own, inspects media files, checks the host for required tooling, and
// lists the history ledger. Commands resolve configuration lazily through
// a shared command context so utilities like "config init" work before a
// configuration file exists.
package main
