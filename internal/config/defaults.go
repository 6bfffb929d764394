package config

const (
	defaultStagingDir       = "~/.local/share/spool/staging"
	defaultOutputDir        = "~/renders"
	defaultLogDir           = "~/.local/share/spool/logs"
	defaultLogRetentionDays = 60
	defaultMaxWorkers       = 16
	defaultAudioBitrate     = "128k"
	defaultAudioSampleRate  = 48000
	defaultTimeoutSeconds   = 1800
	defaultSubtitleFont     = "Arial"
	defaultSubtitleFontSize = 48
	defaultBurnCodec        = "libx264"
	defaultMusicVolume      = 0.15
	defaultHistoryDBPath    = "~/.local/share/spool/history.db"
	defaultGPU              = "L4"
	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Render: Render{
			MaxWorkers:      defaultMaxWorkers,
			AudioBitrate:    defaultAudioBitrate,
			AudioSampleRate: defaultAudioSampleRate,
			TimeoutSeconds:  defaultTimeoutSeconds,
		},
		Subtitles: Subtitles{
			Font:      defaultSubtitleFont,
			FontSize:  defaultSubtitleFontSize,
			BurnCodec: defaultBurnCodec,
		},
		Music: Music{
			Volume: defaultMusicVolume,
		},
		History: History{
			Enabled: true,
			DBPath:  defaultHistoryDBPath,
		},
		Pricing: Pricing{
			GPU: defaultGPU,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
