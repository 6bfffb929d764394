package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeSubtitles()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizePricing()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	if value, ok := os.LookupEnv("SPOOL_RENDER_MAX_WORKERS"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed >= 0 {
			c.Render.MaxWorkers = parsed
		}
	}
	if value, ok := os.LookupEnv("SPOOL_RENDER_TIMEOUT_SECONDS"); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && parsed > 0 {
			c.Render.TimeoutSeconds = parsed
		}
	}
	c.Render.AudioBitrate = strings.TrimSpace(c.Render.AudioBitrate)
	if c.Render.AudioBitrate == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
	if c.Render.AudioSampleRate <= 0 {
		c.Render.AudioSampleRate = defaultAudioSampleRate
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Font = strings.TrimSpace(c.Subtitles.Font)
	if c.Subtitles.Font == "" {
		c.Subtitles.Font = defaultSubtitleFont
	}
	if c.Subtitles.FontSize <= 0 {
		c.Subtitles.FontSize = defaultSubtitleFontSize
	}
	c.Subtitles.BurnCodec = strings.TrimSpace(c.Subtitles.BurnCodec)
	if c.Subtitles.BurnCodec == "" {
		c.Subtitles.BurnCodec = defaultBurnCodec
	}
}

func (c *Config) normalizeHistory() error {
	var err error
	if strings.TrimSpace(c.History.DBPath) == "" {
		c.History.DBPath = defaultHistoryDBPath
	}
	if c.History.DBPath, err = expandPath(c.History.DBPath); err != nil {
		return fmt.Errorf("history.db_path: %w", err)
	}
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizePricing() {
	c.Pricing.GPU = strings.ToUpper(strings.TrimSpace(c.Pricing.GPU))
	if c.Pricing.GPU == "" {
		c.Pricing.GPU = defaultGPU
	}
	if len(c.Pricing.RatesUSDPerHour) > 0 {
		rates := make(map[string]float64, len(c.Pricing.RatesUSDPerHour))
		for gpu, rate := range c.Pricing.RatesUSDPerHour {
			normalized := strings.ToUpper(strings.TrimSpace(gpu))
			if normalized == "" {
				continue
			}
			rates[normalized] = rate
		}
		c.Pricing.RatesUSDPerHour = rates
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "auto":
		c.Logging.Format = "auto"
	case "console", "json":
	default:
		c.Logging.Format = "auto"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
