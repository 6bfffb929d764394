package render

import (
	"fmt"
	"sort"
	"strings"

	"spool/internal/services"
)

// SlideFailure records why a single slide could not be rendered. Failures do
// not abort the run; they are collected and reported together.
type SlideFailure struct {
	Index  int
	Reason string
}

// RenderError aggregates every slide failure from one scheduling pass.
type RenderError struct {
	Failures []SlideFailure
}

func (e *RenderError) Error() string {
	indices := make([]string, len(e.Failures))
	for i, failure := range e.Failures {
		indices[i] = fmt.Sprintf("%d", failure.Index)
	}
	return fmt.Sprintf("failed to render %d slides: [%s]", len(e.Failures), strings.Join(indices, ", "))
}

func (e *RenderError) Unwrap() error {
	return services.ErrExternalTool
}

func sortFailures(failures []SlideFailure) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Index < failures[j].Index
	})
}
