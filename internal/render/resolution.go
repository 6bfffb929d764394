package render

import (
	"fmt"
	"strings"
)

// Quality selects the encode profile for a run.
type Quality string

const (
	// QualityDraft trades fidelity for speed: short edge scaled to 540,
	// ultrafast preset, higher CRF.
	QualityDraft Quality = "draft"
	// QualityFinal renders at full requested resolution.
	QualityFinal Quality = "final"
)

// ParseQuality validates a quality string from a job spec.
func ParseQuality(value string) (Quality, error) {
	switch Quality(strings.ToLower(strings.TrimSpace(value))) {
	case "", QualityFinal:
		return QualityFinal, nil
	case QualityDraft:
		return QualityDraft, nil
	default:
		return "", fmt.Errorf("unknown quality %q (want draft or final)", value)
	}
}

// QualityDimensions applies the resolution policy for the given quality.
// Final passes the requested dimensions through untouched. Draft scales the
// short edge to 540 preserving aspect ratio, then rounds both dimensions up
// to even so yuv420p subsampling stays valid.
func QualityDimensions(width, height int, quality Quality) (int, int) {
	if quality != QualityDraft {
		return width, height
	}

	aspect := float64(width) / float64(height)
	var draftWidth, draftHeight int
	if aspect > 1 {
		draftHeight = 540
		draftWidth = int(540 * aspect)
	} else {
		draftWidth = 540
		draftHeight = int(540 / aspect)
	}

	draftWidth += draftWidth % 2
	draftHeight += draftHeight % 2

	return draftWidth, draftHeight
}
