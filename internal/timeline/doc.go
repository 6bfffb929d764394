// Package timeline joins rendered slide segments into one clip. Boundaries
// between adjacent slides may carry a cross-blend transition; the package
// resolves each boundary's transition request, clamps its duration to the
// neighboring segments, and builds either a stream-copy concat (no blends
// anywhere) or a chained xfade/acrossfade filter graph with exact offset
// bookkeeping.
package timeline
