package jobspec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"spool/internal/services"
	"spool/internal/textutil"
)

// DefaultOutputName is used when a job does not name its output file.
const DefaultOutputName = "render.mp4"

// Dimensions is the output frame geometry.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

// Transition requests a blend into the following slide.
type Transition struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
}

// Motion describes a slide's camera movement. Only the transition leg
// affects assembly; the pan/zoom easing itself is carried for callers that
// post-process slides.
type Motion struct {
	Type       string      `json:"type"`
	Amount     *float64    `json:"amount,omitempty"`
	Transition *Transition `json:"transition,omitempty"`
}

// Transform adjusts slide framing.
type Transform struct {
	Scale   *float64 `json:"scale,omitempty"`
	OffsetX *float64 `json:"offset_x,omitempty"`
	OffsetY *float64 `json:"offset_y,omitempty"`
}

// Slide pairs an image with its narration clip.
type Slide struct {
	Image     string     `json:"image"`
	Audio     string     `json:"audio"`
	Motion    *Motion    `json:"motion,omitempty"`
	Subtitle  *bool      `json:"subtitle,omitempty"`
	Transform *Transform `json:"transform,omitempty"`
}

// SubtitleEnabled reports whether the slide participates in subtitle
// rendering. Absent means enabled.
func (s Slide) SubtitleEnabled() bool {
	return s.Subtitle == nil || *s.Subtitle
}

// SubtitleChunk is one timed text unit of a slide's narration.
type SubtitleChunk struct {
	SlideIndex      int      `json:"slide_index"`
	ChunkIndex      int      `json:"chunk_index"`
	Text            string   `json:"text"`
	Lines           []string `json:"lines,omitempty"`
	Start           float64  `json:"start"`
	End             *float64 `json:"end,omitempty"`
	Duration        *float64 `json:"duration,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty"`
	PositionPercent *float64 `json:"position_percent,omitempty"`
	Audio           string   `json:"audio,omitempty"`
}

// IsEnabled reports whether the chunk should be drawn. Absent means drawn.
func (c SubtitleChunk) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Subtitle selects the overlay source: a ready-made subtitle file, timed
// chunks for the karaoke generator, or both (the file wins for burning).
type Subtitle struct {
	Format string          `json:"format,omitempty"`
	File   string          `json:"file,omitempty"`
	Chunks []SubtitleChunk `json:"chunks,omitempty"`
}

// MuteRange silences the music bed between two absolute timestamps. The
// wire format is a two-element array.
type MuteRange struct {
	Start float64
	End   float64
}

// UnmarshalJSON decodes the [start, end] pair form.
func (r *MuteRange) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("mute range must be a [start, end] pair, got %d values", len(pair))
	}
	r.Start = pair[0]
	r.End = pair[1]
	return nil
}

// MarshalJSON encodes the pair form.
func (r MuteRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Start, r.End})
}

// BackgroundMusic lays a music bed under the narration.
type BackgroundMusic struct {
	File       string      `json:"file"`
	Volume     *float64    `json:"volume,omitempty"`
	Duck       *bool       `json:"duck,omitempty"`
	MuteRanges []MuteRange `json:"mute_ranges,omitempty"`
}

// Render carries encode-time options.
type Render struct {
	UseParallel bool   `json:"use_parallel"`
	Quality     string `json:"quality,omitempty"`
	GPUPreset   string `json:"gpu_preset,omitempty"`
}

// Job is a complete render job specification.
type Job struct {
	JobID           string           `json:"job_id"`
	OutputName      string           `json:"output_name,omitempty"`
	Dimensions      Dimensions       `json:"dimensions"`
	BackgroundColor string           `json:"background_color,omitempty"`
	Render          Render           `json:"render"`
	Slides          []Slide          `json:"slides"`
	Subtitle        *Subtitle        `json:"subtitle,omitempty"`
	EndingVideo     string           `json:"ending_video,omitempty"`
	BackgroundMusic *BackgroundMusic `json:"background_music,omitempty"`
}

// Parse decodes and validates a job spec from JSON bytes.
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, services.Wrap(services.ErrValidation, "jobspec", "parse", "decode job spec", err)
	}
	job.normalize()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Load reads and parses a job spec file.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "jobspec", "load", "read job spec", err)
	}
	return Parse(data)
}

// normalize applies spec defaults before validation so downstream code
// never re-checks them.
func (j *Job) normalize() {
	j.JobID = strings.TrimSpace(j.JobID)
	j.OutputName = textutil.SanitizeFileName(j.OutputName)
	if j.OutputName == "" {
		j.OutputName = DefaultOutputName
	}
	j.BackgroundColor = strings.TrimSpace(j.BackgroundColor)
	if j.BackgroundColor == "" {
		j.BackgroundColor = "#000000"
	}
	j.Render.Quality = strings.ToLower(strings.TrimSpace(j.Render.Quality))
	if j.Render.Quality == "" {
		j.Render.Quality = "final"
	}
	j.Render.GPUPreset = strings.ToUpper(strings.TrimSpace(j.Render.GPUPreset))
	if j.Subtitle != nil {
		j.Subtitle.Format = strings.ToLower(strings.TrimSpace(j.Subtitle.Format))
		if j.Subtitle.Format == "" {
			j.Subtitle.Format = "ass"
		}
	}
}

// HasSubtitleChunks reports whether the karaoke generator has input.
func (j *Job) HasSubtitleChunks() bool {
	return j.Subtitle != nil && len(j.Subtitle.Chunks) > 0
}

// SubtitleFile returns the ready-made overlay path, if any.
func (j *Job) SubtitleFile() string {
	if j.Subtitle == nil {
		return ""
	}
	return j.Subtitle.File
}
