package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"spool/internal/config"
	"spool/internal/deps"
	"spool/internal/ledger"
	"spool/internal/services/ffmpeg"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHistoryDB verifies the history database can be opened at its
// configured location. The database file is created when missing.
func CheckHistoryDB(cfg *config.Config) Result {
	const name = "History database"

	store, err := ledger.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", store.Path())}
}

// CheckSystemDeps evaluates the external binaries a render needs. A missing
// binary surfaces here and in the doctor report; the pipeline itself reports
// it per slide when the encode cannot start.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for rendering, burn-in, and mixing",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	}
	return deps.CheckBinaries(requirements)
}

// CheckEncoders probes the configured ffmpeg build for the encoders the
// pipeline can select.
func CheckEncoders(ctx context.Context, cfg *config.Config) []deps.Status {
	cli := ffmpeg.NewCLI(ffmpeg.WithBinary(cfg.FFmpegBinary()))
	requirements := []deps.EncoderRequirement{
		{
			Name:        "libx264",
			Encoder:     "libx264",
			Description: "Required for slide encoding and subtitle burn-in",
		},
		{
			Name:        "h264_nvenc",
			Encoder:     "h264_nvenc",
			Description: "Enables GPU-accelerated subtitle burn-in",
			Optional:    true,
		},
	}
	return deps.CheckEncoders(ctx, cli, requirements)
}
