// Package ledger persists render history in SQLite.
//
// The Store records one row per finished run: what was rendered, whether it
// succeeded, how long it took, and what the GPU time was estimated to cost.
// History is an archive rather than working state; renders never read it back,
// so a disabled or broken ledger must not block the pipeline.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package ledger
