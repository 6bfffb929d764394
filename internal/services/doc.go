// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job IDs, stage names, and slide
//     indices for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent classifications (caller mistake vs render failure).
//   - Thin abstractions that make command execution against external tools
//     testable.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
