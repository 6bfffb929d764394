package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for render run identifiers.
	FieldRunID = "run_id"
	// FieldJobID is the standardized structured logging key for job identifiers.
	FieldJobID = "job_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldSlide is the standardized structured logging key for zero-based slide indices.
	FieldSlide = "slide"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldEventType categorizes log records for downstream filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldErrorHint,
	"command",
	"error_message",
	"status",
	"quality",
	"gpu",
	"dimensions",
	"background_color",
	"slide_count",
	"slides_failed",
	"transition",
	"transition_duration",
	"subtitle_format",
	"music_file",
	"ending_video",
	"output",
	"total_duration",
	"stage_duration",
	"render_duration",
	"join_duration",
	"encode_duration",
	"workers",
	"output_bytes",
	"cost_usd",
	"gpu_rate_usd_per_hour",
	"reason",
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldRunID, FieldJobID, FieldStage, FieldSlide, FieldComponent:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	if key == "" {
		return true
	}
	switch key {
	case "filtergraph",
		"filter_complex",
		"argv",
		"stderr_tail",
		"exit_code",
		"concat_list",
		"allocations",
		"chunk_count",
		"encoder_cache":
		return true
	}
	if key != FieldRunID && key != FieldJobID && len(key) > 3 && key[len(key)-3:] == "_id" {
		return true
	}
	if containsAny(key, "_path", "_dir", "_file") && key != "music_file" {
		return true
	}
	return false
}

func containsAny(key string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
