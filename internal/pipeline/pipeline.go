package pipeline

import (
	"context"
	"log/slog"

	"spool/internal/config"
	"spool/internal/ledger"
	"spool/internal/logging"
	"spool/internal/media/ffprobe"
	"spool/internal/pricing"
	"spool/internal/services/ffmpeg"
)

// ProbeFunc inspects a media file. The pipeline relies on it for slide audio
// durations and for reading the dimensions of the joined video before the
// ending is conformed onto it.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// EncoderCheckFunc reports whether the configured ffmpeg build exposes the
// named encoder.
type EncoderCheckFunc func(ctx context.Context, name string) bool

// Pipeline drives complete render runs against one configuration.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	runner    ffmpeg.Runner
	probe     ProbeFunc
	encoderOK EncoderCheckFunc
	store     *ledger.Store
	estimator *pricing.Estimator
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger for run progress. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRunner overrides the ffmpeg invoker, primarily for tests.
func WithRunner(runner ffmpeg.Runner) Option {
	return func(p *Pipeline) {
		if runner != nil {
			p.runner = runner
		}
	}
}

// WithProbe overrides media inspection, primarily for tests.
func WithProbe(probe ProbeFunc) Option {
	return func(p *Pipeline) {
		if probe != nil {
			p.probe = probe
		}
	}
}

// WithEncoderCheck overrides encoder detection, primarily for tests.
func WithEncoderCheck(check EncoderCheckFunc) Option {
	return func(p *Pipeline) {
		if check != nil {
			p.encoderOK = check
		}
	}
}

// WithLedger supplies an already-open history store. The pipeline does not
// close it. Without this option each run opens and closes its own store when
// history is enabled.
func WithLedger(store *ledger.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// New builds a pipeline bound to cfg. Unset collaborators default to the
// real ffmpeg and ffprobe binaries named by the configuration.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	}
	if p.encoderOK == nil {
		if cli, ok := p.runner.(*ffmpeg.CLI); ok {
			p.encoderOK = cli.HasEncoder
		} else {
			p.encoderOK = func(context.Context, string) bool { return true }
		}
	}
	if p.probe == nil {
		binary := cfg.FFprobeBinary()
		p.probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		}
	}
	p.estimator = pricing.NewEstimator(cfg.Pricing.RatesUSDPerHour, pricing.WithLogger(p.logger))
	return p
}
