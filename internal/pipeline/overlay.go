package pipeline

import (
	"context"

	"spool/internal/bundle"
	"spool/internal/jobspec"
	"spool/internal/services"
	"spool/internal/subtitles"
)

// Overlay generates the subtitle document for a job's chunks without running
// a render. A nil bundle skips narration probing, so timing falls back to
// explicit chunk values and the reading-speed estimate.
func (p *Pipeline) Overlay(ctx context.Context, job *jobspec.Job, bnd *bundle.Bundle) (string, int, error) {
	if job == nil || !job.HasSubtitleChunks() {
		return "", 0, services.Wrap(services.ErrValidation, "pipeline", "overlay", "job spec has no subtitle chunks", nil)
	}

	var (
		chunks []subtitles.Chunk
		err    error
	)
	opts := subtitles.TimelineOptions{FrameHeight: job.Dimensions.Height}
	if bnd != nil {
		chunks, err = resolveChunks(bnd, job)
		opts.AudioDuration = p.audioDuration()
	} else {
		chunks, err = convertChunks(job, nil)
	}
	if err != nil {
		return "", 0, err
	}

	dialogues := subtitles.BuildTimeline(ctx, chunks, opts)
	doc := subtitles.Document(dialogues, job.Dimensions.Width, job.Dimensions.Height, subtitles.StyleOptions{
		Font:     p.cfg.Subtitles.Font,
		FontSize: p.cfg.Subtitles.FontSize,
	})
	return doc, len(dialogues), nil
}
