package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"spool/internal/bundle"
	"spool/internal/fileutil"
	"spool/internal/jobspec"
	"spool/internal/logging"
	"spool/internal/music"
	"spool/internal/render"
	"spool/internal/services"
	"spool/internal/subtitles"
	"spool/internal/timeline"
)

// Stage names as recorded in logs and in the history ledger's failed_stage
// column.
const (
	stageValidate    = "validate"
	stageMaterialize = "materialize"
	stageResolve     = "resolve"
	stageProbe       = "probe"
	stageRender      = "render"
	stageJoin        = "join"
	stageSubtitles   = "subtitles"
	stageEnding      = "ending"
	stageMusic       = "music"
	stageDeliver     = "deliver"
)

// outcome carries what execute produced, including failure detail for the
// ledger when a stage errored out.
type outcome struct {
	outputPath      string
	transitionCount int
	failedStage     string
	failedSlides    string
}

// execute walks the stage sequence inside the prepared work directory. The
// outcome's failedStage always names the stage in flight, so a returned error
// can be attributed without unwrapping it.
func (p *Pipeline) execute(ctx context.Context, req Request, workDir string) (outcome, error) {
	job := req.Job
	var out outcome

	out.failedStage = stageValidate
	settings, err := p.settings(job)
	if err != nil {
		return out, err
	}

	out.failedStage = stageMaterialize
	bnd, err := bundle.Materialize(req.BundlePath, logging.WithContext(ctx, logging.NewComponentLogger(p.logger, "bundle")))
	if err != nil {
		return out, err
	}
	defer bnd.Cleanup()

	out.failedStage = stageResolve
	a, err := resolveAssets(bnd, job)
	if err != nil {
		return out, err
	}

	out.failedStage = stageProbe
	durations, err := p.probeSlideDurations(services.WithStage(ctx, stageProbe), a)
	if err != nil {
		return out, err
	}

	out.failedStage = stageRender
	segments, err := p.renderSlides(services.WithStage(ctx, stageRender), req, a, durations, settings, workDir)
	if err != nil {
		var renderErr *render.RenderError
		if errors.As(err, &renderErr) {
			out.failedSlides = formatFailedSlides(renderErr.Failures)
		}
		return out, err
	}

	out.failedStage = stageJoin
	current, blends, err := p.joinSegments(services.WithStage(ctx, stageJoin), job, segments, durations, settings, workDir)
	if err != nil {
		return out, err
	}
	out.transitionCount = blends

	out.failedStage = stageSubtitles
	current, err = p.applySubtitles(services.WithStage(ctx, stageSubtitles), job, a, workDir, current)
	if err != nil {
		return out, err
	}

	out.failedStage = stageEnding
	current, err = p.appendEnding(services.WithStage(ctx, stageEnding), a, workDir, current)
	if err != nil {
		return out, err
	}

	out.failedStage = stageMusic
	current, err = p.mixMusic(services.WithStage(ctx, stageMusic), job, a, settings, workDir, current)
	if err != nil {
		return out, err
	}

	out.failedStage = stageDeliver
	outputPath, err := p.deliver(services.WithStage(ctx, stageDeliver), job, req, current)
	if err != nil {
		return out, err
	}

	out.outputPath = outputPath
	out.failedStage = ""
	return out, nil
}

// settings projects the job spec and configuration onto encode settings.
func (p *Pipeline) settings(job *jobspec.Job) (render.Settings, error) {
	settings := render.DefaultSettings()
	quality, err := render.ParseQuality(job.Render.Quality)
	if err != nil {
		return settings, services.Wrap(services.ErrValidation, "pipeline", "validate", err.Error(), nil)
	}
	settings.Quality = quality
	settings.Width = job.Dimensions.Width
	settings.Height = job.Dimensions.Height
	settings.FPS = job.Dimensions.FPS
	settings.BackgroundColor = job.BackgroundColor
	if _, ok := render.ParseColor(job.BackgroundColor); !ok {
		p.logger.Warn("background color not parseable, using black",
			logging.String("background_color", job.BackgroundColor))
	}
	if bitrate := strings.TrimSpace(p.cfg.Render.AudioBitrate); bitrate != "" {
		settings.AudioBitrate = bitrate
	}
	if rate := p.cfg.Render.AudioSampleRate; rate > 0 {
		settings.AudioSampleRate = rate
	}
	return settings, nil
}

// workers picks the slide pool size. A job that opts out of parallel
// rendering always encodes one slide at a time.
func (p *Pipeline) workers(req Request) int {
	if !req.Job.Render.UseParallel {
		return 1
	}
	if req.MaxWorkers > 0 {
		return req.MaxWorkers
	}
	return p.cfg.Render.MaxWorkers
}

func (p *Pipeline) renderSlides(ctx context.Context, req Request, a *assets, durations []float64, settings render.Settings, workDir string) ([]string, error) {
	slides := make([]render.Slide, len(a.slides))
	for i, slide := range a.slides {
		slides[i] = render.Slide{
			Index:    i,
			Image:    slide.image,
			Audio:    slide.audio,
			Duration: durations[i],
		}
	}
	scheduler := render.NewScheduler(p.runner,
		render.WithWorkers(p.workers(req)),
		render.WithLogger(logging.NewComponentLogger(p.logger, "render")))
	return scheduler.Render(ctx, slides, settings, workDir)
}

func (p *Pipeline) joinSegments(ctx context.Context, job *jobspec.Job, segments []string, durations []float64, settings render.Settings, workDir string) (string, int, error) {
	specs := transitionSpecs(job)
	plan, err := timeline.BuildPlan(len(segments), durations, specs)
	if err != nil {
		return "", 0, err
	}
	joined := filepath.Join(workDir, "joined.mp4")
	joiner := timeline.NewJoiner(p.runner, timeline.WithLogger(logging.NewComponentLogger(p.logger, "timeline")))
	if err := joiner.Join(ctx, segments, durations, specs, settings, workDir, joined); err != nil {
		return "", 0, err
	}
	return joined, countBlends(plan), nil
}

// applySubtitles burns the overlay when the job carries one. A ready-made
// subtitle file wins over generated karaoke chunks.
func (p *Pipeline) applySubtitles(ctx context.Context, job *jobspec.Job, a *assets, workDir, current string) (string, error) {
	log := logging.WithContext(ctx, p.logger)

	subtitlePath := a.subtitleFile
	if subtitlePath == "" && job.HasSubtitleChunks() {
		dialogues := subtitles.BuildTimeline(ctx, a.chunks, subtitles.TimelineOptions{
			AudioDuration: p.audioDuration(),
			FrameHeight:   job.Dimensions.Height,
		})
		if len(dialogues) == 0 {
			log.Info("no visible subtitle chunks, skipping burn")
			return current, nil
		}
		doc := subtitles.Document(dialogues, job.Dimensions.Width, job.Dimensions.Height, subtitles.StyleOptions{
			Font:     p.cfg.Subtitles.Font,
			FontSize: p.cfg.Subtitles.FontSize,
		})
		subtitlePath = filepath.Join(workDir, "subtitles.ass")
		if err := os.WriteFile(subtitlePath, []byte(doc), 0o644); err != nil {
			return "", services.Wrap(services.ErrTransient, "pipeline", "subtitles", "write subtitle overlay", err)
		}
		log.Info("subtitle overlay generated",
			logging.Int("dialogue_count", len(dialogues)),
			logging.String("path", subtitlePath))
	}
	if subtitlePath == "" {
		return current, nil
	}

	burner := subtitles.NewBurner(p.runner, subtitles.WithLogger(logging.NewComponentLogger(p.logger, "subtitles")))
	next := filepath.Join(workDir, "subtitled.mp4")
	if err := burner.Burn(ctx, current, subtitlePath, p.burnCodec(ctx, log), next); err != nil {
		return "", err
	}
	return next, nil
}

// burnCodec returns the configured burn-in encoder, falling back to libx264
// when the ffmpeg build does not expose it.
func (p *Pipeline) burnCodec(ctx context.Context, log *slog.Logger) string {
	codec := strings.TrimSpace(p.cfg.Subtitles.BurnCodec)
	if codec == "" {
		codec = "libx264"
	}
	if codec != "libx264" && !p.encoderOK(ctx, codec) {
		log.Warn("configured burn encoder unavailable, using libx264",
			logging.String("encoder", codec))
		return "libx264"
	}
	return codec
}

// appendEnding conforms the ending clip to the joined video's actual
// dimensions and concatenates it on. The dimensions come from a probe rather
// than the job spec because draft renders scale the frame down.
func (p *Pipeline) appendEnding(ctx context.Context, a *assets, workDir, current string) (string, error) {
	if a.endingVideo == "" {
		return current, nil
	}
	probed, err := p.probe(ctx, current)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "pipeline", "ending", "probe joined video", err)
	}
	width, height := probed.VideoDimensions()
	if width <= 0 || height <= 0 {
		return "", services.Wrap(services.ErrExternalTool, "pipeline", "ending",
			fmt.Sprintf("joined video %s reports no dimensions", current), nil)
	}
	joiner := timeline.NewJoiner(p.runner, timeline.WithLogger(logging.NewComponentLogger(p.logger, "timeline")))
	next := filepath.Join(workDir, "with_ending.mp4")
	if err := joiner.AppendEnding(ctx, current, a.endingVideo, width, height, workDir, next); err != nil {
		return "", err
	}
	return next, nil
}

func (p *Pipeline) mixMusic(ctx context.Context, job *jobspec.Job, a *assets, settings render.Settings, workDir, current string) (string, error) {
	if a.musicFile == "" {
		return current, nil
	}
	spec := job.BackgroundMusic
	opts := music.Options{
		Volume: p.cfg.Music.Volume,
		Duck:   p.cfg.Music.Duck,
	}
	if spec.Volume != nil {
		opts.Volume = *spec.Volume
	}
	if spec.Duck != nil {
		opts.Duck = *spec.Duck
	}
	for _, r := range spec.MuteRanges {
		opts.MuteRanges = append(opts.MuteRanges, music.Range{Start: r.Start, End: r.End})
	}
	mixer := music.NewMixer(p.runner, music.WithLogger(logging.NewComponentLogger(p.logger, "music")))
	next := filepath.Join(workDir, "with_music.mp4")
	if err := mixer.Mix(ctx, current, a.musicFile, opts, settings, next); err != nil {
		return "", err
	}
	return next, nil
}

// deliver copies the finished render out of staging. The copy is verified by
// size so a full disk cannot leave a silently truncated output behind.
func (p *Pipeline) deliver(ctx context.Context, job *jobspec.Job, req Request, current string) (string, error) {
	outputPath := strings.TrimSpace(req.OutputPath)
	if outputPath == "" {
		outputPath = filepath.Join(p.cfg.Paths.OutputDir, job.OutputName)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "deliver", "create output directory", err)
	}
	if err := fileutil.CopyFileVerified(current, outputPath); err != nil {
		return "", services.Wrap(services.ErrTransient, "pipeline", "deliver", "copy render to output", err)
	}
	logging.WithContext(ctx, p.logger).Info("render delivered", logging.String("output", outputPath))
	return outputPath, nil
}

func transitionSpecs(job *jobspec.Job) []*timeline.Spec {
	specs := make([]*timeline.Spec, len(job.Slides))
	for i, slide := range job.Slides {
		if slide.Motion == nil || slide.Motion.Transition == nil {
			continue
		}
		specs[i] = timeline.ParseSpec(slide.Motion.Transition.Type, slide.Motion.Transition.Duration)
	}
	return specs
}

func countBlends(plan timeline.Plan) int {
	count := 0
	for _, op := range plan.Ops {
		if op.Blend != nil {
			count++
		}
	}
	return count
}

func formatFailedSlides(failures []render.SlideFailure) string {
	parts := make([]string, len(failures))
	for i, failure := range failures {
		parts[i] = strconv.Itoa(failure.Index)
	}
	return strings.Join(parts, ", ")
}
