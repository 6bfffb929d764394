package timeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spool/internal/render"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
)

type joinRunner struct {
	args       [][]string
	exitCode   int
	stderr     string
	skipOutput bool
}

func (r *joinRunner) Run(_ context.Context, args []string) (ffmpeg.Result, error) {
	r.args = append(r.args, args)
	if r.exitCode != 0 {
		return ffmpeg.Result{ExitCode: r.exitCode, Stderr: r.stderr}, nil
	}
	if !r.skipOutput {
		output := args[len(args)-1]
		if err := os.WriteFile(output, []byte("joined"), 0o644); err != nil {
			return ffmpeg.Result{}, err
		}
	}
	return ffmpeg.Result{}, nil
}

func writeSegments(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("segment"), 0o644); err != nil {
			t.Fatalf("write segment: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestJoinerStreamCopiesWithoutTransitions(t *testing.T) {
	dir := t.TempDir()
	segments := writeSegments(t, dir, "slide_000.mp4", "slide_001.mp4")
	runner := &joinRunner{}
	joiner := NewJoiner(runner)
	output := filepath.Join(dir, "joined.mp4")

	err := joiner.Join(context.Background(), segments, []float64{1, 1}, nil, render.DefaultSettings(), dir, output)
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	if len(runner.args) != 1 {
		t.Fatalf("expected one invocation, got %d", len(runner.args))
	}
	joined := strings.Join(runner.args[0], " ")
	if !strings.Contains(joined, "-f concat -safe 0") || !strings.Contains(joined, "-c copy") {
		t.Errorf("expected stream-copy concat, got %s", joined)
	}

	listPath := filepath.Join(dir, "concat_list.txt")
	content, readErr := os.ReadFile(listPath)
	if readErr != nil {
		t.Fatalf("concat list not written: %v", readErr)
	}
	if string(content) != ConcatListContent(segments) {
		t.Errorf("concat list content mismatch: %q", content)
	}
}

func TestJoinerBlendsWhenTransitionPresent(t *testing.T) {
	dir := t.TempDir()
	segments := writeSegments(t, dir, "slide_000.mp4", "slide_001.mp4")
	runner := &joinRunner{}
	joiner := NewJoiner(runner)
	output := filepath.Join(dir, "joined.mp4")

	specs := []*Spec{{Type: TransitionCrossfade, Duration: 0.5}, nil}
	err := joiner.Join(context.Background(), segments, []float64{1, 1}, specs, render.DefaultSettings(), dir, output)
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	joined := strings.Join(runner.args[0], " ")
	if !strings.Contains(joined, "-filter_complex") || !strings.Contains(joined, "xfade=transition=fade:duration=0.500:offset=0.500") {
		t.Errorf("expected blend graph, got %s", joined)
	}
	if strings.Contains(joined, "-c copy") {
		t.Errorf("blend join must re-encode, got %s", joined)
	}
}

func TestJoinerNonZeroExitIsFatal(t *testing.T) {
	dir := t.TempDir()
	segments := writeSegments(t, dir, "slide_000.mp4", "slide_001.mp4")
	runner := &joinRunner{exitCode: 1, stderr: "filtergraph broke"}
	joiner := NewJoiner(runner)

	err := joiner.Join(context.Background(), segments, []float64{1, 1}, nil, render.DefaultSettings(), dir, filepath.Join(dir, "joined.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "filtergraph broke") {
		t.Errorf("error should carry stderr tail: %v", err)
	}
}

func TestJoinerEmptyOutputIsFatal(t *testing.T) {
	dir := t.TempDir()
	segments := writeSegments(t, dir, "slide_000.mp4")
	runner := &joinRunner{skipOutput: true}
	joiner := NewJoiner(runner)

	err := joiner.Join(context.Background(), segments, []float64{1}, nil, render.DefaultSettings(), dir, filepath.Join(dir, "joined.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing or empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestJoinerMismatchedDurationsRejected(t *testing.T) {
	dir := t.TempDir()
	segments := writeSegments(t, dir, "slide_000.mp4", "slide_001.mp4")
	runner := &joinRunner{}
	joiner := NewJoiner(runner)

	specs := []*Spec{{Type: TransitionFade, Duration: 1}, nil}
	err := joiner.Join(context.Background(), segments, []float64{1}, specs, render.DefaultSettings(), dir, filepath.Join(dir, "joined.mp4"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(runner.args) != 0 {
		t.Errorf("ffmpeg should not run on configuration errors")
	}
}
