package render

import (
	"strconv"
)

// Slide describes one image+audio pair to encode into a video segment.
type Slide struct {
	Index    int
	Image    string
	Audio    string
	Duration float64
}

// Settings carries the per-run encode parameters shared by every slide.
type Settings struct {
	Width           int
	Height          int
	Quality         Quality
	BackgroundColor string
	FPS             int
	Preset          string
	CRF             int
	AudioBitrate    string
	AudioSampleRate int
}

// DefaultSettings returns the encode defaults for a 1080x1920 reel.
func DefaultSettings() Settings {
	return Settings{
		Width:           1080,
		Height:          1920,
		Quality:         QualityFinal,
		BackgroundColor: "#000000",
		FPS:             30,
		Preset:          "veryfast",
		CRF:             23,
		AudioBitrate:    "128k",
		AudioSampleRate: 48000,
	}
}

// EncodeParams returns the libx264 preset and CRF for the configured quality
// tier. Draft always encodes ultrafast at CRF 28 regardless of the configured
// preset; final uses the configured values.
func EncodeParams(settings Settings) (string, int) {
	if settings.Quality == QualityDraft {
		return "ultrafast", 28
	}
	return settings.Preset, settings.CRF
}

// SlideArgs builds the full ffmpeg argument list for one slide encode. The
// image loops for the slide duration, is letterboxed onto the target canvas
// with the normalized background color, and is muxed with the narration
// audio. Draft quality overrides the preset and CRF for speed and drops the
// stillimage tune.
func SlideArgs(slide Slide, settings Settings, outputPath string) []string {
	width, height := QualityDimensions(settings.Width, settings.Height, settings.Quality)
	background := NormalizeColor(settings.BackgroundColor)

	preset, crfValue := EncodeParams(settings)
	crf := strconv.Itoa(crfValue)
	var tune []string
	if settings.Quality != QualityDraft {
		tune = []string{"-tune", "stillimage"}
	}

	args := []string{
		"-y",
		"-loop", "1",
		"-i", slide.Image,
		"-i", slide.Audio,
		"-t", formatSeconds(slide.Duration),
		"-vf", scalePadFilter(width, height, background),
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", crf,
	}
	args = append(args, tune...)
	args = append(args,
		"-r", strconv.Itoa(settings.FPS),
		"-c:a", "aac",
		"-b:a", settings.AudioBitrate,
		"-ar", strconv.Itoa(settings.AudioSampleRate),
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

func scalePadFilter(width, height int, background string) string {
	w := strconv.Itoa(width)
	h := strconv.Itoa(height)
	return "scale=" + w + ":" + h + ":force_original_aspect_ratio=decrease," +
		"pad=" + w + ":" + h + ":(ow-iw)/2:(oh-ih)/2:color=" + background + "," +
		"format=yuv420p"
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
