package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"spool/internal/config"
	"spool/internal/jobspec"
	"spool/internal/pipeline"
	"spool/internal/render"
	"spool/internal/services"
)

func newRenderCommand(cmdCtx *commandContext) *cobra.Command {
	var specPath string
	var outputPath string
	var quality string
	var workDir string
	var maxWorkers int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "render <bundle>",
		Short: "Render a reel from a job spec and its asset bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			bundlePath := strings.TrimSpace(args[0])
			job, err := loadJob(bundlePath, specPath)
			if err != nil {
				return err
			}
			if q := strings.TrimSpace(quality); q != "" {
				parsed, err := render.ParseQuality(q)
				if err != nil {
					return services.Wrap(services.ErrValidation, "cli", "render", err.Error(), nil)
				}
				job.Render.Quality = string(parsed)
			}
			if dir := strings.TrimSpace(workDir); dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return services.Wrap(services.ErrValidation, "cli", "render",
						fmt.Sprintf("resolve work directory: %v", err), nil)
				}
				cfg.Paths.StagingDir = expanded
			}

			logger, logPath, err := newRunLogger(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := pipeline.New(cfg, pipeline.WithLogger(logger)).Run(ctx, pipeline.Request{
				Job:        job,
				BundlePath: bundlePath,
				OutputPath: strings.TrimSpace(outputPath),
				MaxWorkers: maxWorkers,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			printRenderSummary(cmd.OutOrStdout(), result, logPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "s", "", "Job spec file (default: job.json inside a directory bundle)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Exact path for the finished render")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Override the spec's quality tier (draft or final)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Stage intermediates under this directory")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Cap the slide encode pool (0 uses the configured size)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run result as JSON")

	return cmd
}

// loadJob reads the job spec for a render. With no explicit spec path the
// bundle itself is consulted: directory bundles may carry a job.json at
// their root.
func loadJob(bundlePath, specPath string) (*jobspec.Job, error) {
	spec := strings.TrimSpace(specPath)
	if spec == "" {
		candidate := filepath.Join(bundlePath, "job.json")
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			return nil, services.Wrap(services.ErrValidation, "cli", "render",
				"--spec is required when the bundle has no job.json", nil)
		}
		spec = candidate
	}
	return jobspec.Load(spec)
}

func printRenderSummary(out io.Writer, result *pipeline.Result, logPath string) {
	fmt.Fprintf(out, "Render complete: %s\n", result.OutputPath)
	fmt.Fprintf(out, "  run %s  job %s  quality %s\n", shortID(result.RunID), result.JobID, result.Quality)
	fmt.Fprintf(out, "  %d slides, %d transitions in %s\n",
		result.SlideCount, result.TransitionCount, formatDuration(result.Duration))
	if result.Estimate.CostUSD != nil {
		fmt.Fprintf(out, "  estimated %s on %s (%s rate)\n",
			formatCost(result.Estimate.CostUSD), result.Estimate.GPU, result.Estimate.RateSource)
	}
	if logPath != "" {
		fmt.Fprintf(out, "  log %s\n", logPath)
	}
}
