// Package jobspec defines the JSON render job format and its validation.
// A job names the slides, dimensions, transitions, subtitle chunks, ending
// video, and background music of one reel; paths inside the spec are
// bundle-relative until the pipeline resolves them.
package jobspec
