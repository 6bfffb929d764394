package services_test

import (
	"context"
	"testing"

	"spool/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithJobID(ctx, "reel-01")
	ctx = services.WithStage(ctx, "slides")
	ctx = services.WithSlide(ctx, 3)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if id, ok := services.JobIDFromContext(ctx); !ok || id != "reel-01" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "slides" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if slide, ok := services.SlideFromContext(ctx); !ok || slide != 3 {
		t.Fatalf("unexpected slide: %v %v", slide, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

func TestNegativeSlideIgnored(t *testing.T) {
	ctx := services.WithSlide(context.Background(), -1)
	if _, ok := services.SlideFromContext(ctx); ok {
		t.Fatal("expected no slide value for negative index")
	}
}
