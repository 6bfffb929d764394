package subtitles

import (
	"context"
	"math"
	"sort"
	"unicode/utf8"
)

// estimateSecondsPerRune drives the duration fallback when a chunk carries
// no usable timing at all.
const estimateSecondsPerRune = 0.06

// AudioDurationFunc resolves a narration clip's length in seconds. Errors
// and non-positive results fall back to the character-count estimate.
type AudioDurationFunc func(ctx context.Context, path string) (float64, error)

// TimelineOptions parameterize the absolute layout.
type TimelineOptions struct {
	// AudioDuration probes a chunk's audio source when it carries no
	// explicit timing. Nil disables the probe step.
	AudioDuration AudioDurationFunc
	// FrameHeight maps vertical position percentages onto pixel margins.
	FrameHeight int
}

// BuildTimeline lays every chunk out on one absolute timeline. Chunks are
// grouped by slide in slide order and ordered by chunk index within a
// group; slides sit back-to-back. Disabled and empty chunks advance the
// clock without emitting a dialogue line. Within a group the clock never
// moves backwards, so emitted lines are chronological and non-overlapping
// even when chunk start times collide.
func BuildTimeline(ctx context.Context, chunks []Chunk, opts TimelineOptions) []Dialogue {
	groups := groupBySlide(chunks)

	dialogues := make([]Dialogue, 0, len(chunks))
	offset := 0.0
	for _, group := range groups {
		clock := 0.0
		durationSum := 0.0
		groupEnd := 0.0
		emitted := false

		for _, chunk := range group {
			text := trimText(chunk.Text)
			duration := resolveDuration(ctx, chunk, text, opts.AudioDuration)
			start := chunk.Start
			if start < clock {
				start = clock
			}
			end := start + duration
			clock = end
			durationSum += duration
			if end > groupEnd {
				groupEnd = end
			}

			if !chunk.Enabled || text == "" {
				continue
			}
			words := KaraokeWords(text, chunk.Lines, totalCentiseconds(duration))
			if len(words) == 0 {
				continue
			}
			emitted = true
			dialogues = append(dialogues, Dialogue{
				SlideIndex: chunk.SlideIndex,
				ChunkIndex: chunk.ChunkIndex,
				Start:      offset + start,
				End:        offset + end,
				Words:      words,
				MarginV:    MarginForPercent(chunk.PositionPercent, opts.FrameHeight),
			})
		}

		if emitted {
			offset += groupEnd
		} else {
			offset += durationSum
		}
	}
	return dialogues
}

// resolveDuration applies the chunk timing chain: explicit duration, then
// end−start, then the audio probe, then the character-count estimate. Any
// non-positive or non-finite outcome is replaced by the estimate.
func resolveDuration(ctx context.Context, chunk Chunk, text string, probe AudioDurationFunc) float64 {
	estimate := math.Max(1.0, estimateSecondsPerRune*float64(utf8.RuneCountInString(text)))

	duration := 0.0
	resolved := false
	switch {
	case chunk.Duration != nil:
		duration = *chunk.Duration
		resolved = true
	case chunk.End != nil:
		duration = *chunk.End - chunk.Start
		resolved = true
	}
	if !resolved && chunk.Audio != "" && probe != nil {
		if probed, err := probe(ctx, chunk.Audio); err == nil {
			duration = probed
			resolved = true
		}
	}
	if !resolved {
		return estimate
	}
	if !(duration > 0) || math.IsInf(duration, 0) {
		return estimate
	}
	return duration
}

// totalCentiseconds converts a chunk duration into the centisecond budget
// shared by its words, never less than one.
func totalCentiseconds(duration float64) int {
	centis := int(math.Round(duration * 100))
	if centis < 1 {
		centis = 1
	}
	return centis
}

// MarginForPercent maps a vertical position percent onto an ASS
// margin-from-bottom pixel value, clamped to the frame. Nil defers to the
// style default.
func MarginForPercent(percent *float64, frameHeight int) int {
	if percent == nil || frameHeight <= 0 {
		return 0
	}
	margin := float64(frameHeight) - (*percent/100.0)*float64(frameHeight)
	if margin < 0 {
		margin = 0
	}
	if limit := float64(frameHeight); margin > limit {
		margin = limit
	}
	return int(math.Round(margin))
}

func groupBySlide(chunks []Chunk) [][]Chunk {
	bySlide := make(map[int][]Chunk)
	for _, chunk := range chunks {
		bySlide[chunk.SlideIndex] = append(bySlide[chunk.SlideIndex], chunk)
	}
	indices := make([]int, 0, len(bySlide))
	for index := range bySlide {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	groups := make([][]Chunk, 0, len(indices))
	for _, index := range indices {
		group := bySlide[index]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ChunkIndex < group[j].ChunkIndex
		})
		groups = append(groups, group)
	}
	return groups
}
