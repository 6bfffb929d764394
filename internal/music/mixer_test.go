package music

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

type mixRunner struct {
	args       []string
	exitCode   int
	stderr     string
	skipOutput bool
}

func (r *mixRunner) Run(_ context.Context, args []string) (ffmpeg.Result, error) {
	r.args = args
	if r.exitCode != 0 {
		return ffmpeg.Result{ExitCode: r.exitCode, Stderr: r.stderr}, nil
	}
	if !r.skipOutput {
		if err := os.WriteFile(args[len(args)-1], []byte("mixed"), 0o644); err != nil {
			return ffmpeg.Result{}, err
		}
	}
	return ffmpeg.Result{}, nil
}

func TestMixerWritesOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "mixed.mp4")
	runner := &mixRunner{}

	mixer := NewMixer(runner)
	err := mixer.Mix(context.Background(), "in.mp4", "bed.mp3",
		Options{Volume: 0.2, Duck: true}, render.DefaultSettings(), output)
	if err != nil {
		t.Fatalf("Mix() error = %v", err)
	}

	joined := strings.Join(runner.args, " ")
	if !strings.Contains(joined, "sidechaincompress") {
		t.Errorf("duck option did not select the compressor: %q", joined)
	}
	if !strings.HasSuffix(joined, output) {
		t.Errorf("mix must write %q: %q", output, joined)
	}
}

func TestMixerNonZeroExitIsFatal(t *testing.T) {
	runner := &mixRunner{exitCode: 1, stderr: "bed.mp3: No such file or directory"}
	mixer := NewMixer(runner)

	err := mixer.Mix(context.Background(), "in.mp4", "bed.mp3",
		Options{}, render.DefaultSettings(), filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("Mix() error = %v, want external tool failure", err)
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Errorf("error does not carry stderr tail: %v", err)
	}
}

func TestMixerEmptyOutputIsFatal(t *testing.T) {
	runner := &mixRunner{skipOutput: true}
	mixer := NewMixer(runner)

	err := mixer.Mix(context.Background(), "in.mp4", "bed.mp3",
		Options{}, render.DefaultSettings(), filepath.Join(t.TempDir(), "out.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("Mix() error = %v, want external tool failure", err)
	}
	if !strings.Contains(err.Error(), "output file missing or empty") {
		t.Errorf("Mix() error = %v", err)
	}
}
