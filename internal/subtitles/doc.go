// Package subtitles turns per-chunk subtitle metadata into a karaoke-style
// ASS overlay and burns it into rendered video. Chunks are grouped per
// slide, laid out on one absolute timeline, and each emitted line carries
// word-level reveal timings allocated proportionally to word length in
// centiseconds. Timing anomalies never fail a render; they degrade to a
// character-count estimate.
package subtitles
