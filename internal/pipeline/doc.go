// Package pipeline assembles a finished reel from a job spec and its asset
// bundle. A run materializes the bundle, stages intermediates under a private
// work directory, walks the fixed stage order (render, join, subtitles,
// ending, music, deliver), and records the outcome in the history ledger
// whether the run succeeded or failed.
//
// Runs are exclusive per staging directory: a file lock turns a second
// concurrent invocation away instead of letting it race the first.
package pipeline
