// Package bundle materializes job asset bundles. A bundle is either a
// directory used in place or a zip archive extracted to a temporary
// directory for the duration of the run.
package bundle
