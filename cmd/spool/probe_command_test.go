package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"spool/internal/testsupport"
)

func TestProbeSummarizesMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	cfg.Render.FFprobeBinary = writeStub(t, filepath.Join(base, "bin"), "ffprobe", "echo '"+probeStubJSON+"'\n")
	configPath := writeTestConfig(t, cfg)

	media := filepath.Join(base, "clip.mp4")
	testsupport.WriteFile(t, media, 64)

	out, _, err := runCLI(t, configPath, "probe", media)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	requireContains(t, out, "1080x1920")
	requireContains(t, out, "12.5s")
	requireContains(t, out, "1.0 MiB")
}

func TestProbeJSONSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	cfg.Render.FFprobeBinary = writeStub(t, filepath.Join(base, "bin"), "ffprobe", "echo '"+probeStubJSON+"'\n")
	configPath := writeTestConfig(t, cfg)

	media := filepath.Join(base, "clip.mp4")
	testsupport.WriteFile(t, media, 64)

	out, _, err := runCLI(t, configPath, "probe", media, "--json")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}

	var summary probeSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.DurationSeconds != 12.5 {
		t.Fatalf("expected 12.5s duration, got %v", summary.DurationSeconds)
	}
	if summary.Width != 1080 || summary.Height != 1920 {
		t.Fatalf("unexpected dimensions %dx%d", summary.Width, summary.Height)
	}
	if summary.FrameRate != 30 {
		t.Fatalf("expected 30 fps, got %v", summary.FrameRate)
	}
	if summary.VideoStreams != 1 || summary.AudioStreams != 1 {
		t.Fatalf("unexpected stream counts: %+v", summary)
	}
	if summary.SizeBytes != 1048576 {
		t.Fatalf("expected 1 MiB size, got %d", summary.SizeBytes)
	}
}
