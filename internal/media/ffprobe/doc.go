// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no spool-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result provide convenient access to stream counts,
// video dimensions, frame rate, duration, and size. Missing values come
// back as zero and malformed numeric text as NaN, so callers decide what
// an unusable probe means for them.
package ffprobe
