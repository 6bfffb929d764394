package deps

import (
	"context"
	"fmt"
	"strings"

	"spool/internal/services/ffmpeg"
)

// EncoderRequirement defines a video encoder the configured ffmpeg build
// should expose.
type EncoderRequirement struct {
	Name        string
	Encoder     string
	Description string
	Optional    bool
}

// CheckEncoders probes the ffmpeg build for each required encoder. The probe
// result is cached per binary, so repeated checks do not re-run ffmpeg.
func CheckEncoders(ctx context.Context, cli *ffmpeg.CLI, requirements []EncoderRequirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		encoder := strings.TrimSpace(req.Encoder)
		status := Status{
			Name:        req.Name,
			Command:     encoder,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if encoder == "" {
			status.Detail = "encoder not configured"
			results = append(results, status)
			continue
		}
		if cli == nil || !cli.HasEncoder(ctx, encoder) {
			status.Detail = fmt.Sprintf("encoder %q not reported by ffmpeg", encoder)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
