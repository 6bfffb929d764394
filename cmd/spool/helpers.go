package main

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"spool/internal/config"
	"spool/internal/logging"
)

// shortID trims a run identifier down to the prefix used in logs and tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func titleize(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return cases.Title(language.Und).String(trimmed)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || seconds <= 0 {
		return "-"
	}
	return formatDuration(time.Duration(seconds * float64(time.Second)))
}

func formatCost(cost *float64) string {
	if cost == nil {
		return "-"
	}
	return fmt.Sprintf("$%.4f", *cost)
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// newRunLogger builds the logger for a foreground render. Lines go to stderr
// and to a timestamped file under the log directory, keeping stdout clean
// for summaries and --json output. Old run logs are pruned on the way in.
func newRunLogger(cfg *config.Config) (*slog.Logger, string, error) {
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("spool-%s.log", time.Now().UTC().Format("20060102-150405")))
	logger, err := logging.New(logging.Options{
		Level:       cfg.LoggingLevel(),
		Format:      cfg.LoggingFormat(),
		OutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return nil, "", err
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "spool-*.log",
		Exclude: []string{logPath},
	})
	return logger, logPath, nil
}
