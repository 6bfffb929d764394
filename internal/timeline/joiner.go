package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"spool/internal/logging"
	"spool/internal/render"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
)

// Joiner executes join plans against ffmpeg.
type Joiner struct {
	runner ffmpeg.Runner
	logger *slog.Logger
}

// JoinerOption configures a Joiner.
type JoinerOption func(*Joiner)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) JoinerOption {
	return func(j *Joiner) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// NewJoiner constructs a joiner around the given runner.
func NewJoiner(runner ffmpeg.Runner, opts ...JoinerOption) *Joiner {
	j := &Joiner{runner: runner, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Join concatenates the rendered segments into outputPath. When no boundary
// carries a transition the segments are stream-copied through the concat
// demuxer; otherwise the whole chain re-encodes through a blend filter
// graph. Join failures are fatal, there is no partial output.
func (j *Joiner) Join(ctx context.Context, segments []string, durations []float64, specs []*Spec, settings render.Settings, workDir, outputPath string) error {
	plan, err := BuildPlan(len(segments), durations, specs)
	if err != nil {
		return err
	}

	log := logging.WithContext(ctx, j.logger)
	if !plan.HasBlends {
		listPath := filepath.Join(workDir, "concat_list.txt")
		if err := os.WriteFile(listPath, []byte(ConcatListContent(segments)), 0o644); err != nil {
			return services.Wrap(services.ErrExternalTool, "join", "concat", "write concat list", err)
		}
		log.Info("joining segments",
			logging.Int("segment_count", len(segments)),
			logging.String("transition", "none"))
		log.Debug("concat demuxer join", logging.String("concat_list", listPath))
		return j.run(ctx, ConcatArgs(listPath, outputPath), outputPath, "concat")
	}

	blends := 0
	for _, op := range plan.Ops {
		if op.Blend != nil {
			blends++
		}
	}
	graph, _, _ := FilterGraph(plan)
	log.Info("joining segments",
		logging.Int("segment_count", len(segments)),
		logging.Int("transition_count", blends),
		logging.Float64("total_duration", plan.TotalDuration))
	log.Debug("blend join graph", logging.String("filter_complex", graph))
	return j.run(ctx, BlendJoinArgs(segments, plan, settings, outputPath), outputPath, "blend")
}

func (j *Joiner) run(ctx context.Context, args []string, outputPath, operation string) error {
	result, err := j.runner.Run(ctx, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "join", operation, "ffmpeg invocation", err)
	}
	if result.ExitCode != 0 {
		tail := ffmpeg.StderrTail(result.Stderr, 5)
		return services.Wrap(services.ErrExternalTool, "join", operation,
			fmt.Sprintf("ffmpeg exited with code %d: %s", result.ExitCode, tail), nil)
	}
	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "join", operation, "output file missing or empty", nil)
	}
	return nil
}
