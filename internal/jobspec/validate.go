package jobspec

import (
	"fmt"

	"spool/internal/render"
	"spool/internal/services"
)

var motionTypes = map[string]struct{}{
	"zoom-in":   {},
	"zoom-out":  {},
	"pan-left":  {},
	"pan-right": {},
	"pan-up":    {},
	"pan-down":  {},
}

var transitionTypes = map[string]struct{}{
	"fade":      {},
	"crossfade": {},
	"dissolve":  {},
}

// Validate checks the normalized job field by field. The first violation
// is returned as a validation error; the render is never attempted on an
// invalid job.
func (j *Job) Validate() error {
	if j.JobID == "" {
		return invalid("job_id is required")
	}
	if err := j.Dimensions.validate(); err != nil {
		return err
	}
	if _, err := render.ParseQuality(j.Render.Quality); err != nil {
		return invalid(fmt.Sprintf("render.quality %q is not recognized (use draft or final)", j.Render.Quality))
	}
	if len(j.Slides) == 0 {
		return invalid("at least one slide is required")
	}
	for i, slide := range j.Slides {
		if err := slide.validate(i); err != nil {
			return err
		}
	}
	if j.Subtitle != nil {
		if err := j.Subtitle.validate(len(j.Slides)); err != nil {
			return err
		}
	}
	if j.BackgroundMusic != nil {
		if err := j.BackgroundMusic.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (d Dimensions) validate() error {
	if d.Width <= 0 {
		return invalid("dimensions.width must be positive")
	}
	if d.Height <= 0 {
		return invalid("dimensions.height must be positive")
	}
	if d.FPS <= 0 {
		return invalid("dimensions.fps must be positive")
	}
	return nil
}

func (s Slide) validate(index int) error {
	if s.Image == "" {
		return invalid(fmt.Sprintf("slides[%d].image is required", index))
	}
	if s.Audio == "" {
		return invalid(fmt.Sprintf("slides[%d].audio is required", index))
	}
	if s.Motion != nil {
		if _, ok := motionTypes[s.Motion.Type]; !ok {
			return invalid(fmt.Sprintf("slides[%d].motion.type %q is not recognized", index, s.Motion.Type))
		}
		if s.Motion.Amount != nil && (*s.Motion.Amount < 0 || *s.Motion.Amount > 1) {
			return invalid(fmt.Sprintf("slides[%d].motion.amount must be between 0 and 1", index))
		}
		if t := s.Motion.Transition; t != nil {
			if _, ok := transitionTypes[t.Type]; !ok {
				return invalid(fmt.Sprintf("slides[%d].motion.transition.type %q is not recognized", index, t.Type))
			}
			if !(t.Duration > 0) {
				return invalid(fmt.Sprintf("slides[%d].motion.transition.duration must be positive", index))
			}
		}
	}
	if s.Transform != nil && s.Transform.Scale != nil {
		if scale := *s.Transform.Scale; !(scale > 0) || scale > 6 {
			return invalid(fmt.Sprintf("slides[%d].transform.scale must be in (0, 6]", index))
		}
	}
	return nil
}

func (s Subtitle) validate(slideCount int) error {
	if s.Format != "ass" && s.Format != "srt" {
		return invalid(fmt.Sprintf("subtitle.format %q is not recognized (use ass or srt)", s.Format))
	}
	if s.File == "" && len(s.Chunks) == 0 {
		return invalid("subtitle requires a file or chunks")
	}
	for i, chunk := range s.Chunks {
		if chunk.SlideIndex < 0 || chunk.SlideIndex >= slideCount {
			return invalid(fmt.Sprintf("subtitle.chunks[%d].slide_index %d is out of range", i, chunk.SlideIndex))
		}
		if chunk.ChunkIndex < 0 {
			return invalid(fmt.Sprintf("subtitle.chunks[%d].chunk_index must not be negative", i))
		}
		if chunk.Start < 0 {
			return invalid(fmt.Sprintf("subtitle.chunks[%d].start must not be negative", i))
		}
		if p := chunk.PositionPercent; p != nil && (*p < 0 || *p > 100) {
			return invalid(fmt.Sprintf("subtitle.chunks[%d].position_percent must be between 0 and 100", i))
		}
	}
	return nil
}

func (m BackgroundMusic) validate() error {
	if m.File == "" {
		return invalid("background_music.file is required")
	}
	if m.Volume != nil && (*m.Volume < 0 || *m.Volume > 2) {
		return invalid("background_music.volume must be between 0 and 2")
	}
	for i, r := range m.MuteRanges {
		if r.End <= r.Start {
			return invalid(fmt.Sprintf("background_music.mute_ranges[%d]: mute range end must be greater than start", i))
		}
	}
	return nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "jobspec", "validate", message, nil)
}
