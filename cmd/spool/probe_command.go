package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spool/internal/media/ffprobe"
)

// probeSummary is the stable shape emitted by spool probe --json.
type probeSummary struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	VideoStreams    int     `json:"video_streams"`
	AudioStreams    int     `json:"audio_streams"`
	SizeBytes       int64   `json:"size_bytes,omitempty"`
}

func newProbeCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <media-file>",
		Short: "Inspect a media file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(args[0])
			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
			if err != nil {
				return err
			}

			summary := summarizeProbe(path, result)
			if jsonOut {
				return writeJSON(cmd, summary)
			}

			dimensions := "-"
			if summary.Width > 0 {
				dimensions = fmt.Sprintf("%dx%d", summary.Width, summary.Height)
			}
			fps := "-"
			if summary.FrameRate > 0 {
				fps = strconv.FormatFloat(summary.FrameRate, 'f', -1, 64)
			}
			size := "-"
			if summary.SizeBytes > 0 {
				size = formatBytes(summary.SizeBytes)
			}
			rows := [][]string{{
				summary.Path,
				formatSeconds(summary.DurationSeconds),
				dimensions,
				fps,
				strconv.Itoa(summary.VideoStreams),
				strconv.Itoa(summary.AudioStreams),
				size,
			}}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Duration", "Dimensions", "FPS", "Video", "Audio", "Size"},
				rows, 1, 3, 4, 5, 6))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the summary as JSON")

	return cmd
}

// summarizeProbe flattens a probe result into the summary shape. NaN values
// from unparsable fields become zero so JSON encoding never fails.
func summarizeProbe(path string, result ffprobe.Result) probeSummary {
	width, height := result.VideoDimensions()
	duration := result.DurationSeconds()
	if math.IsNaN(duration) {
		duration = 0
	}
	frameRate := result.FrameRate()
	if math.IsNaN(frameRate) {
		frameRate = 0
	}
	return probeSummary{
		Path:            path,
		DurationSeconds: duration,
		Width:           width,
		Height:          height,
		FrameRate:       frameRate,
		VideoStreams:    result.VideoStreamCount(),
		AudioStreams:    result.AudioStreamCount(),
		SizeBytes:       result.SizeBytes(),
	}
}
