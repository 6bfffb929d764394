package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"spool/internal/config"
	"spool/internal/testsupport"
)

// probeStubJSON is the canned ffprobe payload used by stub binaries: one
// 1080x1920 30fps video stream, one audio stream, 12.5 seconds, 1 MiB.
const probeStubJSON = `{"streams":[{"codec_type":"video","width":1080,"height":1920,"avg_frame_rate":"30/1"},{"codec_type":"audio","sample_rate":"48000","channels":2}],"format":{"duration":"12.5","size":"1048576"}}`

// ffmpegStubBody makes the stub create a non-empty file at its final
// argument, which is where every pipeline invocation puts the output path.
const ffmpegStubBody = "for last; do :; done\nprintf frames > \"$last\"\n"

// writeTestConfig persists cfg beside its temp directories so commands can
// load it through --config.
func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// writeStub creates an executable shell script standing in for ffmpeg or
// ffprobe and returns its absolute path.
func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}
