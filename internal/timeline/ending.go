package timeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"spool/internal/logging"
	"spool/internal/services"
)

// ConformArgs builds the re-encode that fits a clip onto the target frame:
// scaled down to fit, letterboxed with black padding, and normalized to a
// common frame rate and codec pair so two conformed clips can be
// concatenated without another encode.
func ConformArgs(inputPath string, width, height int, outputPath string) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		width, height, width, height)
	return []string{
		"-y",
		"-i", inputPath,
		"-vf", filter,
		"-r", "30",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		outputPath,
	}
}

// AppendEnding splices a trailing clip after the assembled program. Both
// clips are conformed to the program's frame size first, then joined through
// the concat demuxer with stream copy. Intermediate files live in workDir
// and are removed on the way out.
func (j *Joiner) AppendEnding(ctx context.Context, mainPath, endingPath string, width, height int, workDir, outputPath string) error {
	log := logging.WithContext(ctx, j.logger)
	log.Info("appending ending video",
		logging.String("ending", filepath.Base(endingPath)),
		logging.String("dimensions", fmt.Sprintf("%dx%d", width, height)))

	mainTemp := filepath.Join(workDir, "append_main.mp4")
	tailTemp := filepath.Join(workDir, "append_tail.mp4")
	defer os.Remove(mainTemp)
	defer os.Remove(tailTemp)

	if err := j.run(ctx, ConformArgs(mainPath, width, height, mainTemp), mainTemp, "append"); err != nil {
		return err
	}
	if err := j.run(ctx, ConformArgs(endingPath, width, height, tailTemp), tailTemp, "append"); err != nil {
		return err
	}

	listPath := filepath.Join(workDir, "append_list.txt")
	if err := os.WriteFile(listPath, []byte(ConcatListContent([]string{mainTemp, tailTemp})), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "join", "append", "write concat list", err)
	}
	defer os.Remove(listPath)

	return j.run(ctx, ConcatArgs(listPath, outputPath), outputPath, "append")
}
