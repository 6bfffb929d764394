package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateMusic(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.MaxWorkers < 0 {
		return errors.New("render.max_workers must be >= 0 (0 sizes from host resources)")
	}
	if err := ensurePositiveMap(map[string]int{
		"render.audio_sample_rate": c.Render.AudioSampleRate,
		"render.timeout_seconds":   c.Render.TimeoutSeconds,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.font_size must be positive")
	}
	return nil
}

func (c *Config) validateMusic() error {
	if c.Music.Volume < 0 || c.Music.Volume > 2 {
		return errors.New("music.volume must be between 0 and 2")
	}
	return nil
}

func (c *Config) validatePricing() error {
	for gpu, rate := range c.Pricing.RatesUSDPerHour {
		if rate < 0 {
			return fmt.Errorf("pricing.rates_usd_per_hour[%s] must be >= 0", gpu)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
