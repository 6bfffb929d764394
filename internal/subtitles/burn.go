package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"spool/internal/logging"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
)

// EscapeFilterPath escapes a path for the subtitles filter's quoted
// filename option. The filter parser eats backslashes, colons, and quotes.
func EscapeFilterPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = strings.ReplaceAll(path, `\`, "/")
	path = strings.ReplaceAll(path, ":", `\:`)
	path = strings.ReplaceAll(path, "'", `\'`)
	return path
}

// BurnArgs builds the ffmpeg invocation that burns a subtitle file into the
// video track. Non-ASS files carry no styling of their own, so they get a
// forced style. Audio is stream-copied.
func BurnArgs(inputVideo, subtitlePath, codec, outputPath string) []string {
	vf := fmt.Sprintf("subtitles=filename='%s'", EscapeFilterPath(subtitlePath))
	if !strings.HasSuffix(strings.ToLower(subtitlePath), ".ass") {
		vf += ":force_style='Fontsize=24,PrimaryColour=&HFFFFFF&'"
	}
	if strings.TrimSpace(codec) == "" {
		codec = "libx264"
	}
	args := []string{"-y", "-i", inputVideo, "-vf", vf, "-c:v", codec}
	if codec == "h264_nvenc" {
		args = append(args, "-preset", "p6", "-b:v", "8M")
	}
	args = append(args, "-c:a", "copy", outputPath)
	return args
}

// Burner executes subtitle burns against ffmpeg.
type Burner struct {
	runner ffmpeg.Runner
	logger *slog.Logger
}

// BurnerOption configures a Burner.
type BurnerOption func(*Burner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) BurnerOption {
	return func(b *Burner) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBurner constructs a burner around the given runner.
func NewBurner(runner ffmpeg.Runner, opts ...BurnerOption) *Burner {
	b := &Burner{runner: runner, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Burn renders the subtitle file into the video track of inputVideo,
// writing outputPath. Failures are fatal to the run.
func (b *Burner) Burn(ctx context.Context, inputVideo, subtitlePath, codec, outputPath string) error {
	log := logging.WithContext(ctx, b.logger)
	log.Info("burning subtitles",
		logging.String("subtitle_format", strings.TrimPrefix(strings.ToLower(filepath.Ext(subtitlePath)), ".")),
		logging.String("codec", codec))

	args := BurnArgs(inputVideo, subtitlePath, codec, outputPath)
	log.Debug("subtitle burn", logging.String("argv", strings.Join(args, " ")))

	result, err := b.runner.Run(ctx, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "subtitles", "burn", "ffmpeg invocation", err)
	}
	if result.ExitCode != 0 {
		tail := ffmpeg.StderrTail(result.Stderr, 5)
		return services.Wrap(services.ErrExternalTool, "subtitles", "burn",
			fmt.Sprintf("ffmpeg exited with code %d: %s", result.ExitCode, tail), nil)
	}
	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "subtitles", "burn", "output file missing or empty", nil)
	}
	return nil
}
