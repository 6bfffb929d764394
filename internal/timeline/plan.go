package timeline

import (
	"fmt"

	"spool/internal/services"
)

// minOverlap is the smallest blend that still counts as a transition.
// Anything shorter degrades to a hard join.
const minOverlap = 1e-3

// JoinOp is one left-to-right join in the plan: segment SegmentIndex is
// appended to the already-joined prefix. Blend is nil for a hard cut.
type JoinOp struct {
	SegmentIndex int
	Blend        *Spec
	Overlap      float64
	Offset       float64
}

// Plan is the ordered join sequence for a segment list, with the final
// presentation length after all blends shorten the timeline.
type Plan struct {
	Ops           []JoinOp
	TotalDuration float64
	HasBlends     bool
}

// BuildPlan resolves the transition at every boundary and computes blend
// offsets. Boundary i (between segments i and i+1) takes the outgoing
// segment's transition request first and falls back to the incoming
// segment's own request; either side may originate the blend. The effective
// blend duration is clamped to min(requested, left duration, right duration).
//
// The specs slice is indexed per segment and may be shorter than the segment
// list; durations must cover every segment whenever any transition is
// requested.
func BuildPlan(segmentCount int, durations []float64, specs []*Spec) (Plan, error) {
	if segmentCount == 0 {
		return Plan{}, services.Wrap(services.ErrValidation, "join", "plan", "at least one segment required", nil)
	}

	anyRequested := false
	for _, spec := range specs {
		if spec != nil {
			anyRequested = true
			break
		}
	}
	if anyRequested && len(durations) != segmentCount {
		return Plan{}, services.Wrap(services.ErrConfiguration, "join", "plan",
			fmt.Sprintf("duration list has %d entries for %d segments", len(durations), segmentCount), nil)
	}

	plan := Plan{Ops: make([]JoinOp, 0, segmentCount-1)}
	current := 0.0
	if len(durations) > 0 {
		current = durations[0]
	}

	for i := 1; i < segmentCount; i++ {
		op := JoinOp{SegmentIndex: i}

		var chosen *Spec
		for _, candidate := range []*Spec{specAt(specs, i-1), specAt(specs, i)} {
			if candidate != nil {
				chosen = candidate
				break
			}
		}

		duration := durationAt(durations, i)
		if chosen != nil {
			overlap := chosen.Duration
			if left := durationAt(durations, i-1); left < overlap {
				overlap = left
			}
			if duration < overlap {
				overlap = duration
			}
			if overlap > minOverlap {
				op.Blend = chosen
				op.Overlap = overlap
				op.Offset = current - overlap
				if op.Offset < 0 {
					op.Offset = 0
				}
				current += duration - overlap
				plan.HasBlends = true
			}
		}
		if op.Blend == nil {
			current += duration
		}
		plan.Ops = append(plan.Ops, op)
	}

	plan.TotalDuration = current
	return plan, nil
}

func specAt(specs []*Spec, index int) *Spec {
	if index < 0 || index >= len(specs) {
		return nil
	}
	return specs[index]
}

func durationAt(durations []float64, index int) float64 {
	if index < 0 || index >= len(durations) {
		return 0
	}
	return durations[index]
}
