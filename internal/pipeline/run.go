package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"spool/internal/jobspec"
	"spool/internal/ledger"
	"spool/internal/logging"
	"spool/internal/preflight"
	"spool/internal/pricing"
	"spool/internal/services"
	"spool/internal/textutil"
)

// lockFileName guards the staging directory against concurrent runs.
const lockFileName = "spool.lock"

// Request names the inputs for one render run.
type Request struct {
	// Job is the parsed and validated job spec.
	Job *jobspec.Job
	// BundlePath is the asset bundle, either a directory or a zip archive.
	BundlePath string
	// OutputPath overrides the configured output location when non-empty.
	OutputPath string
	// MaxWorkers overrides the configured slide pool size when positive.
	MaxWorkers int
}

// Result summarizes a finished run.
type Result struct {
	RunID           string           `json:"run_id"`
	JobID           string           `json:"job_id"`
	OutputPath      string           `json:"output_path"`
	Quality         string           `json:"quality"`
	SlideCount      int              `json:"slide_count"`
	TransitionCount int              `json:"transition_count"`
	Duration        time.Duration    `json:"-"`
	DurationSeconds float64          `json:"duration_seconds"`
	Estimate        pricing.Estimate `json:"estimate"`
	Recorded        bool             `json:"recorded"`
}

// Run executes the full pipeline for one job. The returned error carries one
// of the services sentinel markers so callers can map it to an exit code; the
// run is recorded in the history ledger on both success and failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Job == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "job spec is required", nil)
	}
	job := req.Job

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, shortRunID(runID))
	ctx = services.WithJobID(ctx, job.JobID)
	log := logging.WithContext(ctx, p.logger)

	start := time.Now()
	log.Info("starting render run",
		logging.String("bundle", req.BundlePath),
		logging.Int("slide_count", len(job.Slides)),
		logging.String("quality", job.Render.Quality))

	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "ensure directories", err)
	}
	if failed := failedChecks(preflight.RunAll(ctx, p.cfg)); len(failed) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "preflight", strings.Join(failed, "; "), nil)
	}

	lock := flock.New(filepath.Join(p.cfg.Paths.StagingDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", "acquire staging lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", "another render run holds the staging lock", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("staging lock release failed", logging.Error(err))
		}
	}()

	timeout := time.Duration(p.cfg.Render.TimeoutSeconds) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	workDir := filepath.Join(p.cfg.Paths.StagingDir,
		fmt.Sprintf("%s-%s", textutil.SanitizeToken(job.JobID), shortRunID(runID)))
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create work directory", err)
	}

	out, runErr := p.execute(ctx, req, workDir)
	if runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		runErr = services.Wrap(services.ErrTimeout, "pipeline", out.failedStage,
			fmt.Sprintf("render timed out after %s", timeout), runErr)
	}

	elapsed := time.Since(start)
	estimate := p.estimateCost(job, elapsed)
	recorded := p.record(ctx, log, req, out, runErr, runID, elapsed, estimate)

	p.cleanupWorkDir(log, workDir, runErr)

	if runErr != nil {
		logging.ErrorWithContext(log, "render run failed", "run_failed",
			logging.String(logging.FieldStage, out.failedStage),
			logging.Error(runErr))
		return nil, runErr
	}

	log.Info("render run complete",
		logging.String("output", out.outputPath),
		logging.Int("transition_count", out.transitionCount),
		logging.Duration("elapsed", elapsed))
	if estimate.CostUSD != nil {
		log.Info("gpu cost estimated",
			logging.String("gpu", estimate.GPU),
			logging.Float64("cost_usd", *estimate.CostUSD),
			logging.String("rate_source", estimate.RateSource))
	}

	return &Result{
		RunID:           runID,
		JobID:           job.JobID,
		OutputPath:      out.outputPath,
		Quality:         job.Render.Quality,
		SlideCount:      len(job.Slides),
		TransitionCount: out.transitionCount,
		Duration:        elapsed,
		DurationSeconds: elapsed.Seconds(),
		Estimate:        estimate,
		Recorded:        recorded,
	}, nil
}

// estimateCost resolves the GPU preset, preferring the job's own over the
// configured default, and prices the elapsed wall time.
func (p *Pipeline) estimateCost(job *jobspec.Job, elapsed time.Duration) pricing.Estimate {
	requested := job.Render.GPUPreset
	if requested == "" {
		requested = p.cfg.Pricing.GPU
	}
	return p.estimator.Estimate(p.estimator.ResolvePreset(requested), elapsed)
}

// record writes the run to the history ledger. Ledger trouble is logged and
// swallowed; an archive failure must never fail a finished render.
func (p *Pipeline) record(ctx context.Context, log *slog.Logger, req Request, out outcome, runErr error, runID string, elapsed time.Duration, estimate pricing.Estimate) bool {
	if !p.cfg.History.Enabled {
		return false
	}
	// The run context may already be expired; bookkeeping still has to land.
	ctx = context.WithoutCancel(ctx)

	store := p.store
	if store == nil {
		opened, err := ledger.Open(p.cfg)
		if err != nil {
			logging.ErrorWithContext(log, "history store unavailable", "history_open_failed", logging.Error(err))
			return false
		}
		defer opened.Close()
		store = opened
	}

	rec := &ledger.Record{
		RunID:           runID,
		JobID:           req.Job.JobID,
		BundlePath:      req.BundlePath,
		OutputPath:      out.outputPath,
		Quality:         req.Job.Render.Quality,
		SlideCount:      len(req.Job.Slides),
		TransitionCount: out.transitionCount,
		Status:          ledger.StatusSucceeded,
		DurationSeconds: elapsed.Seconds(),
		GPU:             estimate.GPU,
		RateUSDPerHour:  estimate.RateUSDPerHour,
		RateSource:      estimate.RateSource,
		CostUSD:         estimate.CostUSD,
	}
	if runErr != nil {
		rec.Status = ledger.StatusFailed
		rec.FailedStage = out.failedStage
		rec.FailedSlides = out.failedSlides
	}
	if err := store.Record(ctx, rec); err != nil {
		logging.ErrorWithContext(log, "history record failed", "history_record_failed", logging.Error(err))
		return false
	}

	if retention := p.cfg.History.RetentionDays; retention > 0 {
		if removed, err := store.Prune(ctx, retention); err != nil {
			log.Warn("history prune failed", logging.Error(err))
		} else if removed > 0 {
			log.Debug("history pruned",
				logging.Int64("removed", removed),
				logging.Int("retention_days", retention))
		}
	}
	return true
}

// cleanupWorkDir removes the run's staging area. Failed runs keep it when the
// configuration asks for the intermediates to stay inspectable.
func (p *Pipeline) cleanupWorkDir(log *slog.Logger, workDir string, runErr error) {
	if runErr != nil && p.cfg.Render.KeepStagingOnErr {
		log.Info("keeping work directory for inspection", logging.String("work_dir", workDir))
		return
	}
	if err := os.RemoveAll(workDir); err != nil {
		log.Warn("work directory cleanup failed",
			logging.String("work_dir", workDir),
			logging.Error(err))
	}
}

func failedChecks(results []preflight.Result) []string {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	return failed
}

func shortRunID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
