// Package preflight provides readiness checks for the external tools and
// filesystem paths that Spool depends on.
//
// These checks run in two contexts:
//   - The render pipeline calls RunAll before starting a run. If any check
//     fails, the run stops before ffmpeg is ever launched.
//   - The CLI "spool doctor" command uses the individual check functions to
//     display tool, encoder, and directory health.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
