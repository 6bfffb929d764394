// Package ffmpeg wraps the ffmpeg command line behind a narrow Runner seam so
// render stages can execute encodes and tests can swap in fakes without
// touching a real binary.
//
// The client deliberately stays argv-in, streams-out: stages own their full
// argument lists and interpret exit codes themselves. The package also owns
// the process-wide encoder capability cache used to pick between software and
// hardware encoders.
package ffmpeg
