package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"spool/internal/services"
	"spool/internal/testsupport"
)

// encoderStubBody mimics ffmpeg -encoders output listing both burn codecs.
const encoderStubBody = "echo ' V..... libx264 H.264'\necho ' V....D h264_nvenc NVIDIA NVENC H.264'\n"

func TestDoctorReportsReadyEnvironment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	cfg.Render.FFmpegBinary = writeStub(t, binDir, "ffmpeg", encoderStubBody)
	cfg.Render.FFprobeBinary = writeStub(t, binDir, "ffprobe", "echo '"+probeStubJSON+"'\n")
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "== Binaries ==")
	requireContains(t, out, "== Encoders ==")
	requireContains(t, out, "== Environment ==")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Staging Directory")
}

func TestDoctorFailsOnMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	missing := filepath.Join(testsupport.BaseDir(cfg), "missing")
	cfg.Render.FFmpegBinary = filepath.Join(missing, "ffmpeg")
	cfg.Render.FFprobeBinary = filepath.Join(missing, "ffprobe")
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "doctor")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestDoctorJSONReport(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	cfg.Render.FFmpegBinary = writeStub(t, binDir, "ffmpeg", encoderStubBody)
	cfg.Render.FFprobeBinary = writeStub(t, binDir, "ffprobe", "echo '"+probeStubJSON+"'\n")
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}

	var report doctorReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if len(report.Binaries) != 2 {
		t.Fatalf("expected 2 binaries, got %d", len(report.Binaries))
	}
	for _, dep := range report.Binaries {
		if !dep.Available {
			t.Fatalf("expected %s to be available: %+v", dep.Name, dep)
		}
	}
	if len(report.Encoders) != 2 {
		t.Fatalf("expected 2 encoders, got %d", len(report.Encoders))
	}
	if len(report.Checks) == 0 {
		t.Fatal("expected environment checks in the report")
	}
	for _, check := range report.Checks {
		if !check.Passed {
			t.Fatalf("expected check %s to pass: %+v", check.Name, check)
		}
	}
}
