package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"spool/internal/services/ffmpeg"
	"spool/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckHistoryDB_OK(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckHistoryDB(cfg)
	if !result.Passed {
		t.Fatalf("expected history check to pass, got: %s", result.Detail)
	}
}

func TestCheckHistoryDB_BadPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.History.DBPath = filepath.Join(blocker, "history.db")

	result := CheckHistoryDB(cfg)
	if result.Passed {
		t.Fatal("expected history check to fail when the parent is a file")
	}
}

func TestRunAllReportsDirectoryFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if !Passed(results) {
		t.Fatalf("expected all checks to pass, got %#v", results)
	}

	cfg.Paths.StagingDir = filepath.Join(testsupport.BaseDir(cfg), "never-created")
	results = RunAll(context.Background(), cfg)
	if Passed(results) {
		t.Fatal("expected staging failure to be reported")
	}
}

func TestRunAllSkipsHistoryWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistoryDisabled())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	for _, result := range RunAll(context.Background(), cfg) {
		if result.Name == "History database" {
			t.Fatal("expected history check to be skipped")
		}
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := CheckSystemDeps(cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, status := range results {
		if !status.Available {
			t.Fatalf("expected %s to be available, got %#v", status.Name, status)
		}
	}
}

func TestCheckSystemDepsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Render.FFmpegBinary = filepath.Join(testsupport.BaseDir(cfg), "missing-ffmpeg")
	cfg.Render.FFprobeBinary = filepath.Join(testsupport.BaseDir(cfg), "missing-ffprobe")

	for _, status := range CheckSystemDeps(cfg) {
		if status.Available {
			t.Fatalf("expected %s to be unavailable", status.Name)
		}
	}
}

func TestCheckEncodersUsesConfiguredBinary(t *testing.T) {
	restore := ffmpeg.ResetEncoderCacheForTests()
	t.Cleanup(restore)

	cfg := testsupport.NewConfig(t)
	binary := filepath.Join(testsupport.BaseDir(cfg), "ffmpeg")
	script := []byte("#!/bin/sh\necho ' V....D libx264    H.264'\nexit 0\n")
	if err := os.WriteFile(binary, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	cfg.Render.FFmpegBinary = binary

	results := CheckEncoders(context.Background(), cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "libx264" || !results[0].Available {
		t.Fatalf("expected libx264 to be available, got %#v", results[0])
	}
	if results[1].Name != "h264_nvenc" || results[1].Available {
		t.Fatalf("expected h264_nvenc to be unavailable, got %#v", results[1])
	}
}
