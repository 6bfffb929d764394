// Package textutil provides text sanitization helpers for filenames and
// path segments.
//
// SanitizeFileName keeps human-readable names safe for the filesystem by
// replacing separators and stripping shell-hostile characters, while
// SanitizeToken reduces identifiers to lowercase tokens suitable for
// directory names and log fields.
package textutil
