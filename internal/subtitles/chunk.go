package subtitles

// Chunk is one subtitle text unit within a slide's narration. Start, End and
// Duration are intra-slide seconds; optional fields are nil when the job
// spec omits them.
type Chunk struct {
	SlideIndex      int
	ChunkIndex      int
	Text            string
	Lines           []string
	Start           float64
	End             *float64
	Duration        *float64
	Enabled         bool
	PositionPercent *float64
	Audio           string
}

// Dialogue is one emitted chunk on the absolute cross-slide timeline.
// MarginV is the ASS margin-from-bottom in pixels; zero defers to the style
// default.
type Dialogue struct {
	SlideIndex int
	ChunkIndex int
	Start      float64
	End        float64
	Words      []Word
	MarginV    int
}
