package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spool/internal/logging"
	"spool/internal/services"
)

func TestNewConsoleWritesToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("render started", logging.String("quality", "draft"))
	logger.Debug("should be suppressed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "render started") {
		t.Fatalf("expected info message in log output, got %q", content)
	}
	if strings.Contains(string(content), "should be suppressed") {
		t.Fatalf("expected debug message suppressed at info level, got %q", content)
	}
}

func TestNewJSONIncludesLowercaseLevel(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "json.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("slides incomplete")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"level":"warn"`) {
		t.Fatalf("expected lowercase level key, got %q", content)
	}
	if !strings.Contains(string(content), `"msg":"slides incomplete"`) {
		t.Fatalf("expected msg key, got %q", content)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Level: "chatty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestConsoleSubjectCarriesJobAndStage(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "subject.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "reel-01")
	ctx = services.WithStage(ctx, "slides")
	logging.WithContext(ctx, logger).Info("progress")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "Job reel-01 (slides)") {
		t.Fatalf("expected subject in console output, got %q", content)
	}
}

func TestWithContextNoFieldsReturnsSameLogger(t *testing.T) {
	logger := logging.NewNop()
	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("expected identical logger when context carries no fields")
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "scheduler")
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("safe to call")
}
