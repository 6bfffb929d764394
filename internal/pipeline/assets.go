package pipeline

import (
	"context"
	"fmt"
	"math"

	"spool/internal/bundle"
	"spool/internal/jobspec"
	"spool/internal/logging"
	"spool/internal/services"
	"spool/internal/subtitles"
)

// slideAssets holds the resolved absolute paths for one slide.
type slideAssets struct {
	image string
	audio string
}

// assets is every bundle path the job references, resolved up front so a
// missing file fails the run before any ffmpeg work starts.
type assets struct {
	slides       []slideAssets
	subtitleFile string
	endingVideo  string
	musicFile    string
	chunks       []subtitles.Chunk
}

func resolveAssets(bnd *bundle.Bundle, job *jobspec.Job) (*assets, error) {
	a := &assets{slides: make([]slideAssets, len(job.Slides))}
	for i, slide := range job.Slides {
		image, err := bnd.Resolve(slide.Image)
		if err != nil {
			return nil, err
		}
		audio, err := bnd.Resolve(slide.Audio)
		if err != nil {
			return nil, err
		}
		a.slides[i] = slideAssets{image: image, audio: audio}
	}

	if job.Subtitle != nil {
		if job.Subtitle.File != "" {
			resolved, err := bnd.Resolve(job.Subtitle.File)
			if err != nil {
				return nil, err
			}
			a.subtitleFile = resolved
		}
		chunks, err := resolveChunks(bnd, job)
		if err != nil {
			return nil, err
		}
		a.chunks = chunks
	}

	if job.EndingVideo != "" {
		resolved, err := bnd.Resolve(job.EndingVideo)
		if err != nil {
			return nil, err
		}
		a.endingVideo = resolved
	}

	if job.BackgroundMusic != nil {
		resolved, err := bnd.Resolve(job.BackgroundMusic.File)
		if err != nil {
			return nil, err
		}
		a.musicFile = resolved
	}
	return a, nil
}

// resolveChunks converts spec chunks into timeline input. A chunk is visible
// only when both it and its slide opt in.
func resolveChunks(bnd *bundle.Bundle, job *jobspec.Job) ([]subtitles.Chunk, error) {
	return convertChunks(job, bnd.Resolve)
}

// convertChunks maps spec chunks onto timeline chunks using resolve to
// translate bundle-relative audio references. A nil resolve drops the audio
// reference, which limits timing to explicit values and the reading-speed
// estimate.
func convertChunks(job *jobspec.Job, resolve func(string) (string, error)) ([]subtitles.Chunk, error) {
	chunks := make([]subtitles.Chunk, 0, len(job.Subtitle.Chunks))
	for _, chunk := range job.Subtitle.Chunks {
		converted := subtitles.Chunk{
			SlideIndex:      chunk.SlideIndex,
			ChunkIndex:      chunk.ChunkIndex,
			Text:            chunk.Text,
			Lines:           chunk.Lines,
			Start:           chunk.Start,
			End:             chunk.End,
			Duration:        chunk.Duration,
			Enabled:         chunk.IsEnabled() && job.Slides[chunk.SlideIndex].SubtitleEnabled(),
			PositionPercent: chunk.PositionPercent,
		}
		if chunk.Audio != "" && resolve != nil {
			resolved, err := resolve(chunk.Audio)
			if err != nil {
				return nil, err
			}
			converted.Audio = resolved
		}
		chunks = append(chunks, converted)
	}
	return chunks, nil
}

// probeSlideDurations reads each slide's narration length. Every slide needs
// a positive duration or the segment encodes would produce garbage timing.
func (p *Pipeline) probeSlideDurations(ctx context.Context, a *assets) ([]float64, error) {
	durations := make([]float64, len(a.slides))
	for i, slide := range a.slides {
		probed, err := p.probe(ctx, slide.audio)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "pipeline", "probe",
				fmt.Sprintf("inspect slide %d audio", i), err)
		}
		duration := probed.DurationSeconds()
		if math.IsNaN(duration) || duration <= 0 {
			return nil, services.Wrap(services.ErrExternalTool, "pipeline", "probe",
				fmt.Sprintf("slide %d audio %s reports no duration", i, slide.audio), nil)
		}
		durations[i] = duration
	}
	logging.WithContext(ctx, p.logger).Debug("slide narration probed",
		logging.Int("slide_count", len(durations)))
	return durations, nil
}

// audioDuration adapts the pipeline's prober for subtitle timing fallback.
func (p *Pipeline) audioDuration() subtitles.AudioDurationFunc {
	return func(ctx context.Context, path string) (float64, error) {
		probed, err := p.probe(ctx, path)
		if err != nil {
			return 0, err
		}
		duration := probed.DurationSeconds()
		if math.IsNaN(duration) {
			return 0, nil
		}
		return duration, nil
	}
}
