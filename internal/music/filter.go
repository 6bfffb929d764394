package music

import (
	"fmt"
	"strconv"
	"strings"

	"spool/internal/render"
)

// DefaultVolume is the music bed level relative to the source, used when
// the job does not set one.
const DefaultVolume = 0.15

// Range silences the bed between two absolute timestamps.
type Range struct {
	Start float64
	End   float64
}

// Options select the mix behavior.
type Options struct {
	// Volume scales the bed; values at or below zero fall back to
	// DefaultVolume.
	Volume float64
	// Duck compresses the bed against the narration instead of a plain
	// mixdown.
	Duck bool
	// MuteRanges silence the bed inside the given windows.
	MuteRanges []Range
}

// VolumeExpression renders the bed's volume as an ffmpeg expression. Mute
// ranges become a time-gated factor so the bed drops to zero inside any
// window and returns to the base level outside them.
func VolumeExpression(volume float64, ranges []Range) string {
	base := strconv.FormatFloat(volume, 'f', -1, 64)
	if len(ranges) == 0 {
		return base
	}
	conditions := make([]string, 0, len(ranges))
	for _, r := range ranges {
		conditions = append(conditions, fmt.Sprintf("between(t,%.3f,%.3f)", r.Start, r.End))
	}
	return fmt.Sprintf("%s*if(%s,0,1)", base, strings.Join(conditions, "+"))
}

// FilterGraph builds the mix filter: the bed is leveled, then either
// sidechain-compressed under the narration (duck) or mixed down flat.
func FilterGraph(opts Options) string {
	volume := opts.Volume
	if !(volume > 0) {
		volume = DefaultVolume
	}
	leveled := fmt.Sprintf("[1:a]volume=%s[bg]", VolumeExpression(volume, opts.MuteRanges))
	if opts.Duck {
		return leveled + ";[0:a][bg]sidechaincompress=threshold=0.03:ratio=6:attack=5:release=250:makeup=0[m]"
	}
	return leveled + ";[0:a][bg]amix=inputs=2:duration=first:dropout_transition=2[m]"
}

// MixArgs builds the ffmpeg invocation that mixes the bed under the video's
// narration. The video track is stream-copied; only audio is re-encoded.
func MixArgs(videoIn, musicIn string, opts Options, settings render.Settings, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoIn,
		"-i", musicIn,
		"-filter_complex", FilterGraph(opts),
		"-map", "0:v",
		"-map", "[m]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", settings.AudioBitrate,
		"-ar", strconv.Itoa(settings.AudioSampleRate),
		outputPath,
	}
}
