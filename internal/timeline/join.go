package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"spool/internal/render"
)

// FilterGraph renders the plan as an ffmpeg filter_complex expression.
// Video and audio are blended independently but at the same boundaries:
// xfade for the picture, acrossfade of equal duration for the sound, and a
// two-input concat pair for hard joins. Returns the graph plus the labels of
// the final video and audio outputs for stream mapping.
func FilterGraph(plan Plan) (string, string, string) {
	videoLabel := "[0:v]"
	audioLabel := "[0:a]"
	if len(plan.Ops) == 0 {
		return "", videoLabel, audioLabel
	}

	parts := make([]string, 0, len(plan.Ops)*2)
	for _, op := range plan.Ops {
		i := op.SegmentIndex
		nextVideo := fmt.Sprintf("[v%d]", i)
		nextAudio := fmt.Sprintf("[a%d]", i)
		if op.Blend != nil {
			parts = append(parts, fmt.Sprintf("%s[%d:v]xfade=transition=%s:duration=%s:offset=%s%s",
				videoLabel, i, xfadeTransition(op.Blend.Type), formatSeconds(op.Overlap), formatSeconds(op.Offset), nextVideo))
			parts = append(parts, fmt.Sprintf("%s[%d:a]acrossfade=d=%s%s",
				audioLabel, i, formatSeconds(op.Overlap), nextAudio))
		} else {
			parts = append(parts, fmt.Sprintf("%s[%d:v]concat=n=2:v=1:a=0%s", videoLabel, i, nextVideo))
			parts = append(parts, fmt.Sprintf("%s[%d:a]concat=n=2:v=0:a=1%s", audioLabel, i, nextAudio))
		}
		videoLabel = nextVideo
		audioLabel = nextAudio
	}
	return strings.Join(parts, ";"), videoLabel, audioLabel
}

// BlendJoinArgs builds the ffmpeg invocation for a transition-bearing join.
// Every segment is an input; the filter graph chains them, and the result is
// re-encoded with the quality tier's parameters since blends preclude stream
// copy.
func BlendJoinArgs(segments []string, plan Plan, settings render.Settings, outputPath string) []string {
	args := []string{"-y"}
	for _, segment := range segments {
		args = append(args, "-i", segment)
	}

	graph, videoLabel, audioLabel := FilterGraph(plan)
	preset, crf := render.EncodeParams(settings)

	args = append(args,
		"-filter_complex", graph,
		"-map", videoLabel,
		"-map", audioLabel,
		"-c:v", "libx264",
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(settings.FPS),
		"-c:a", "aac",
		"-b:a", settings.AudioBitrate,
		"-ar", strconv.Itoa(settings.AudioSampleRate),
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// ConcatListContent builds the concat demuxer list for a stream-copy join.
// Backslashes become forward slashes and single quotes are escaped the way
// the demuxer's quoting rules expect.
func ConcatListContent(paths []string) string {
	var builder strings.Builder
	for _, path := range paths {
		safe := strings.ReplaceAll(path, "\\", "/")
		safe = strings.ReplaceAll(safe, "'", "'\\''")
		fmt.Fprintf(&builder, "file '%s'\n", safe)
	}
	return builder.String()
}

// ConcatArgs builds the stream-copy concat invocation used when no boundary
// blends.
func ConcatArgs(listPath, outputPath string) []string {
	return []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outputPath}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
