// Package music lays a background music bed under a finished video's
// narration. It builds ffmpeg filter graphs (volume, ducking, mute
// windows, mixdown) and runs the mix; the video track is stream-copied.
package music
