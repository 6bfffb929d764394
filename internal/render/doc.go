// Package render turns slide assets into per-slide video segments.
//
// It owns the color and resolution policies shared by every encode, builds
// the ffmpeg argument lists for individual slides, and schedules the
// per-slide encodes across a bounded worker pool. Slide failures are
// collected rather than aborting siblings so a single bad asset reports
// alongside every other failure in one pass.
package render
