package music

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"spool/internal/logging"
	"spool/internal/render"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
)

// Mixer executes background music mixes against ffmpeg.
type Mixer struct {
	runner ffmpeg.Runner
	logger *slog.Logger
}

// MixerOption configures a Mixer.
type MixerOption func(*Mixer)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) MixerOption {
	return func(m *Mixer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMixer constructs a mixer around the given runner.
func NewMixer(runner ffmpeg.Runner, opts ...MixerOption) *Mixer {
	m := &Mixer{runner: runner, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mix lays the music bed under videoIn's audio and writes outputPath.
func (m *Mixer) Mix(ctx context.Context, videoIn, musicIn string, opts Options, settings render.Settings, outputPath string) error {
	log := logging.WithContext(ctx, m.logger)
	log.Info("mixing background music",
		logging.Float64("volume", effectiveVolume(opts.Volume)),
		logging.Bool("duck", opts.Duck),
		logging.Int("mute_ranges", len(opts.MuteRanges)))

	args := MixArgs(videoIn, musicIn, opts, settings, outputPath)
	log.Debug("music mix", logging.String("argv", strings.Join(args, " ")))

	result, err := m.runner.Run(ctx, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "music", "mix", "ffmpeg invocation", err)
	}
	if result.ExitCode != 0 {
		tail := ffmpeg.StderrTail(result.Stderr, 5)
		return services.Wrap(services.ErrExternalTool, "music", "mix",
			fmt.Sprintf("ffmpeg exited with code %d: %s", result.ExitCode, tail), nil)
	}
	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "music", "mix", "output file missing or empty", nil)
	}
	return nil
}

func effectiveVolume(volume float64) float64 {
	if !(volume > 0) {
		return DefaultVolume
	}
	return volume
}
