package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"spool/internal/logging"
	"spool/internal/services"
	"spool/internal/services/ffmpeg"
)

// DefaultMaxWorkers bounds the slide pool when nothing else does.
const DefaultMaxWorkers = 16

// OutputName returns the canonical segment file name for a slide index.
func OutputName(index int) string {
	return fmt.Sprintf("slide_%03d.mp4", index)
}

// Scheduler fans slide encodes out across a bounded worker pool. A failed
// slide never cancels its siblings; every slide gets its attempt and the
// failures are reported together at the end.
type Scheduler struct {
	runner  ffmpeg.Runner
	logger  *slog.Logger
	workers int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers sets the pool size. Zero requests automatic sizing from the
// host machine; negative values are ignored.
func WithWorkers(workers int) SchedulerOption {
	return func(s *Scheduler) {
		if workers >= 0 {
			s.workers = workers
		}
	}
}

// WithLogger attaches a logger for progress and failure reporting.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler constructs a scheduler around the given runner.
func NewScheduler(runner ffmpeg.Runner, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		runner:  runner,
		logger:  logging.NewNop(),
		workers: DefaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render encodes every slide into outputDir and returns the segment paths in
// slide order. Slides that cannot be rendered are collected into a
// RenderError after all workers finish; only context cancellation aborts the
// pool early.
func (s *Scheduler) Render(ctx context.Context, slides []Slide, settings Settings, outputDir string) ([]string, error) {
	if len(slides) == 0 {
		return nil, services.Wrap(services.ErrValidation, "slides", "render", "no slides to render", nil)
	}

	workers := s.workers
	if workers <= 0 {
		workers = AutoWorkers()
	}
	if workers > len(slides) {
		workers = len(slides)
	}

	width, height := QualityDimensions(settings.Width, settings.Height, settings.Quality)
	log := logging.WithContext(ctx, s.logger)
	log.Info("rendering slides",
		logging.Int("slide_count", len(slides)),
		logging.Int("workers", workers),
		logging.String("quality", string(settings.Quality)),
		logging.String("dimensions", fmt.Sprintf("%dx%d", width, height)))

	outputs := make([]string, len(slides))
	for i, slide := range slides {
		outputs[i] = filepath.Join(outputDir, OutputName(slide.Index))
	}

	var (
		mu       sync.Mutex
		failures []SlideFailure
		done     int
	)
	sampler := logging.NewProgressSampler(0)
	total := len(slides)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range slides {
		slide := slides[i]
		output := outputs[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reason, err := s.renderOne(services.WithSlide(gctx, slide.Index), slide, settings, output)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			if reason != "" {
				failures = append(failures, SlideFailure{Index: slide.Index, Reason: reason})
				logging.ErrorWithContext(log, "slide render failed", "slide_failed",
					logging.Int(logging.FieldSlide, slide.Index),
					logging.String("reason", reason))
				return nil
			}
			percent := float64(done) * 100 / float64(total)
			if sampler.ShouldLog(percent, "slides") {
				log.Info("slide segments ready",
					logging.Int("completed", done),
					logging.Int("slide_count", total))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(failures) > 0 {
		sortFailures(failures)
		return nil, &RenderError{Failures: failures}
	}
	return outputs, nil
}

// renderOne encodes a single slide. The returned reason is non-empty when the
// slide failed for its own sake; the error return is reserved for context
// cancellation so siblings keep running through ordinary failures.
func (s *Scheduler) renderOne(ctx context.Context, slide Slide, settings Settings, outputPath string) (string, error) {
	if _, err := os.Stat(slide.Image); err != nil {
		return fmt.Sprintf("image not found: %s", slide.Image), nil
	}
	if _, err := os.Stat(slide.Audio); err != nil {
		return fmt.Sprintf("audio not found: %s", slide.Audio), nil
	}

	args := SlideArgs(slide, settings, outputPath)
	log := logging.WithContext(ctx, s.logger)
	log.Debug("encoding slide", logging.String("argv", strings.Join(args, " ")))

	result, err := s.runner.Run(ctx, args)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return fmt.Sprintf("ffmpeg did not start: %v", err), nil
	}
	if result.ExitCode != 0 {
		log.Debug("slide encode stderr",
			logging.Int("exit_code", result.ExitCode),
			logging.String("stderr_tail", ffmpeg.StderrTail(result.Stderr, 10)))
		reason := fmt.Sprintf("ffmpeg exited with code %d", result.ExitCode)
		if tail := ffmpeg.StderrTail(result.Stderr, 1); tail != "" {
			reason += ": " + tail
		}
		return reason, nil
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return "output file missing or empty", nil
	}
	return "", nil
}
