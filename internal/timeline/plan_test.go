package timeline

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"spool/internal/services"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildPlanClampsAndChainsOffsets(t *testing.T) {
	durations := []float64{2, 3, 2}
	specs := []*Spec{{Type: TransitionCrossfade, Duration: 10}, nil, nil}

	plan, err := BuildPlan(3, durations, specs)
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	if len(plan.Ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(plan.Ops))
	}

	first := plan.Ops[0]
	if first.Blend == nil {
		t.Fatal("first boundary should blend")
	}
	if !almostEqual(first.Overlap, 2) {
		t.Errorf("overlap = %v, want clamp to 2", first.Overlap)
	}
	if !almostEqual(first.Offset, 0) {
		t.Errorf("offset = %v, want 0", first.Offset)
	}

	second := plan.Ops[1]
	if second.Blend != nil {
		t.Errorf("second boundary should hard join, got %+v", second.Blend)
	}

	if !almostEqual(plan.TotalDuration, 5) {
		t.Errorf("total duration = %v, want 5", plan.TotalDuration)
	}
	if !plan.HasBlends {
		t.Error("plan should report blends")
	}
}

func TestBuildPlanSingleBlendOffsets(t *testing.T) {
	plan, err := BuildPlan(2, []float64{1, 1}, []*Spec{{Type: TransitionCrossfade, Duration: 0.5}, nil})
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	if len(plan.Ops) != 1 || plan.Ops[0].Blend == nil {
		t.Fatalf("expected one blended op, got %+v", plan.Ops)
	}
	if !almostEqual(plan.Ops[0].Offset, 0.5) {
		t.Errorf("offset = %v, want 0.5", plan.Ops[0].Offset)
	}
	if !almostEqual(plan.Ops[0].Overlap, 0.5) {
		t.Errorf("overlap = %v, want 0.5", plan.Ops[0].Overlap)
	}
	if !almostEqual(plan.TotalDuration, 1.5) {
		t.Errorf("total duration = %v, want 1.5", plan.TotalDuration)
	}
}

func TestBuildPlanFallsBackToIncomingRequest(t *testing.T) {
	plan, err := BuildPlan(2, []float64{1, 1}, []*Spec{nil, {Type: TransitionFade, Duration: 2.5}})
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	op := plan.Ops[0]
	if op.Blend == nil || op.Blend.Type != TransitionFade {
		t.Fatalf("boundary should take incoming fade, got %+v", op.Blend)
	}
	if !almostEqual(op.Overlap, 1) {
		t.Errorf("overlap = %v, want clamp to 1", op.Overlap)
	}
}

func TestBuildPlanOutgoingRequestWins(t *testing.T) {
	specs := []*Spec{
		{Type: TransitionCrossfade, Duration: 0.5},
		{Type: TransitionDissolve, Duration: 1},
	}
	plan, err := BuildPlan(2, []float64{2, 2}, specs)
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	op := plan.Ops[0]
	if op.Blend == nil || op.Blend.Type != TransitionCrossfade {
		t.Fatalf("outgoing request should win, got %+v", op.Blend)
	}
	if !almostEqual(op.Overlap, 0.5) {
		t.Errorf("overlap = %v, want 0.5", op.Overlap)
	}
}

func TestBuildPlanAbsentAndZeroSpecsMatch(t *testing.T) {
	durations := []float64{2, 2, 2}

	absent, err := BuildPlan(3, durations, nil)
	if err != nil {
		t.Fatalf("BuildPlan(nil specs) error: %v", err)
	}
	zeroed, err := BuildPlan(3, durations, []*Spec{
		ParseSpec("fade", 0),
		ParseSpec("crossfade", 0),
		ParseSpec("dissolve", 0),
	})
	if err != nil {
		t.Fatalf("BuildPlan(zero specs) error: %v", err)
	}

	if !reflect.DeepEqual(absent, zeroed) {
		t.Errorf("zero-duration transitions should plan identically to absent\nabsent: %+v\nzeroed: %+v", absent, zeroed)
	}
	if absent.HasBlends {
		t.Error("absent transitions should not blend")
	}
	if !almostEqual(absent.TotalDuration, 6) {
		t.Errorf("total duration = %v, want 6", absent.TotalDuration)
	}
}

func TestBuildPlanTinyOverlapDegradesToHardJoin(t *testing.T) {
	plan, err := BuildPlan(2, []float64{1, 1}, []*Spec{{Type: TransitionFade, Duration: 0.0005}, nil})
	if err != nil {
		t.Fatalf("BuildPlan returned error: %v", err)
	}
	if plan.HasBlends {
		t.Errorf("sub-millisecond blend should degrade to hard join: %+v", plan.Ops)
	}
	if !almostEqual(plan.TotalDuration, 2) {
		t.Errorf("total duration = %v, want 2", plan.TotalDuration)
	}
}

func TestBuildPlanMismatchedDurationsIsConfigurationError(t *testing.T) {
	_, err := BuildPlan(3, []float64{1, 1}, []*Spec{{Type: TransitionFade, Duration: 1}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	// Without transitions the duration list is not consulted.
	if _, err := BuildPlan(3, []float64{1, 1}, nil); err != nil {
		t.Fatalf("durations unused without transitions, got error %v", err)
	}
}

func TestBuildPlanRejectsEmptySegmentList(t *testing.T) {
	_, err := BuildPlan(0, nil, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
