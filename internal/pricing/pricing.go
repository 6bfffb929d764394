package pricing

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"spool/internal/logging"
)

// DefaultPreset is used when a job does not request a GPU.
const DefaultPreset = "L4"

// Environment keys consulted by the rate chain. The per-GPU key appends
// the preset name with dashes folded to underscores.
const (
	envRatePrefix    = "SPOOL_GPU_RATE_USD_PER_HOUR"
	envRateOverrides = "SPOOL_GPU_RATE_OVERRIDES"
)

var presets = map[string]string{
	"L4":   "L4",
	"L40S": "L40S",
}

// aliasSynonyms maps common misspellings onto supported presets.
var aliasSynonyms = map[string]string{
	"L40": "L40S",
	"L4S": "L40S",
}

var defaultRates = map[string]float64{
	"L4":   0.35,
	"L40S": 1.95,
}

// Estimate is the cost summary attached to a render result. Rate and cost
// are nil when no rate could be resolved.
type Estimate struct {
	GPU             string   `json:"gpu"`
	DurationSeconds float64  `json:"duration_seconds"`
	RateUSDPerHour  *float64 `json:"gpu_rate_usd_per_hour"`
	RateSource      string   `json:"gpu_rate_source"`
	CostUSD         *float64 `json:"cost_usd"`
}

// Estimator resolves presets and rates against configured overrides.
type Estimator struct {
	logger *slog.Logger
	rates  map[string]float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEstimator builds an estimator over the configured rate table. Keys
// are matched case-insensitively.
func NewEstimator(configRates map[string]float64, opts ...Option) *Estimator {
	rates := make(map[string]float64, len(configRates))
	for gpu, rate := range configRates {
		rates[strings.ToUpper(strings.TrimSpace(gpu))] = rate
	}
	e := &Estimator{logger: logging.NewNop(), rates: rates}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolvePreset normalizes a requested GPU name to a supported preset.
// Aliases map to their canonical preset; unknown names warn and fall back
// to the default.
func (e *Estimator) ResolvePreset(requested string) string {
	normalized := strings.ToUpper(strings.TrimSpace(requested))
	if normalized == "" {
		return DefaultPreset
	}
	if canonical, ok := aliasSynonyms[normalized]; ok {
		e.logger.Info("gpu alias normalized",
			logging.String("requested", requested),
			logging.String("preset", canonical))
		normalized = canonical
	}
	if preset, ok := presets[normalized]; ok {
		return preset
	}
	e.logger.Warn("requested gpu not available, falling back",
		logging.String("requested", requested),
		logging.String("preset", DefaultPreset))
	return DefaultPreset
}

// ResolveRate returns the hourly USD rate for a preset and the source it
// came from. The chain is per-GPU env, env JSON overrides, global env,
// configuration, built-in defaults; nil means no rate anywhere.
func (e *Estimator) ResolveRate(gpu string) (*float64, string) {
	gpu = strings.ToUpper(strings.TrimSpace(gpu))

	specificKey := envRatePrefix + "_" + strings.ReplaceAll(gpu, "-", "_")
	if raw := os.Getenv(specificKey); raw != "" {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil {
			return &rate, specificKey
		}
		e.logger.Warn("ignoring invalid rate override",
			logging.String("key", specificKey),
			logging.String("value", raw))
	}

	if raw := os.Getenv(envRateOverrides); raw != "" {
		var overrides map[string]float64
		if err := json.Unmarshal([]byte(raw), &overrides); err == nil {
			if rate, ok := overrides[gpu]; ok {
				return &rate, envRateOverrides
			}
		} else {
			e.logger.Warn("ignoring unparsable rate overrides",
				logging.String("key", envRateOverrides),
				logging.Error(err))
		}
	}

	if raw := os.Getenv(envRatePrefix); raw != "" {
		if rate, err := strconv.ParseFloat(raw, 64); err == nil {
			return &rate, envRatePrefix
		}
		e.logger.Warn("ignoring invalid rate override",
			logging.String("key", envRatePrefix),
			logging.String("value", raw))
	}

	if rate, ok := e.rates[gpu]; ok {
		return &rate, "config"
	}
	if rate, ok := defaultRates[gpu]; ok {
		return &rate, "default"
	}
	return nil, "unset"
}

// Estimate prices a render's wall time on the given preset.
func (e *Estimator) Estimate(gpu string, elapsed time.Duration) Estimate {
	seconds := elapsed.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	rate, source := e.ResolveRate(gpu)
	estimate := Estimate{
		GPU:             gpu,
		DurationSeconds: seconds,
		RateUSDPerHour:  rate,
		RateSource:      source,
	}
	if rate == nil {
		e.logger.Warn("no gpu rate configured, cost estimate unavailable",
			logging.String("gpu", gpu),
			logging.String("source", source))
		return estimate
	}
	cost := *rate * (seconds / 3600.0)
	estimate.CostUSD = &cost
	e.logger.Info("estimated gpu cost",
		logging.String("gpu", gpu),
		logging.String("cost_usd", fmt.Sprintf("%.4f", cost)),
		logging.String("rate_source", source))
	return estimate
}
