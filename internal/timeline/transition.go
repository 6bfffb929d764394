package timeline

import "strings"

// TransitionType enumerates the supported boundary blends.
type TransitionType string

const (
	TransitionFade      TransitionType = "fade"
	TransitionCrossfade TransitionType = "crossfade"
	TransitionDissolve  TransitionType = "dissolve"
)

// Spec is a validated transition request attached to a slide, describing the
// blend into the next slide.
type Spec struct {
	Type     TransitionType
	Duration float64
}

// ParseSpec normalizes a raw transition request. Unknown types and
// non-positive durations are treated as absent rather than errors so a sloppy
// job spec degrades to a hard cut.
func ParseSpec(rawType string, duration float64) *Spec {
	kind := TransitionType(strings.ToLower(strings.TrimSpace(rawType)))
	switch kind {
	case TransitionFade, TransitionCrossfade, TransitionDissolve:
	default:
		return nil
	}
	if !(duration > 0) {
		return nil
	}
	return &Spec{Type: kind, Duration: duration}
}

// xfadeTransition maps a transition type onto the name the xfade filter
// accepts. The filter has no "crossfade" entry; its plain fade is the
// two-input crossfade.
func xfadeTransition(kind TransitionType) string {
	if kind == TransitionDissolve {
		return "dissolve"
	}
	return "fade"
}
