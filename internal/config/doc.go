// Package config loads, normalizes, and validates Spool configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SPOOL_RENDER_MAX_WORKERS. The Config type centralizes every knob the CLI
// needs, allowing staging/output directories and encoder settings to be
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
