package config

const (
	defaultDataDir     = "~/.local/share/intake"
	defaultExportDir   = "~/.local/share/intake/exports"
	defaultDownloadDir = "~/.local/share/intake/downloads"
	defaultLogDir      = "~/.local/share/intake/logs"

	defaultSimilarityThreshold = 85
	defaultNameDistanceLimit   = 2
	defaultEmailDistanceLimit  = 3

	defaultDownloadTimeout = 120
	defaultJobTTLSeconds   = 3600

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			ExportDir:   defaultExportDir,
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Matching: Matching{
			SimilarityThreshold: defaultSimilarityThreshold,
			NameDistanceLimit:   defaultNameDistanceLimit,
			EmailDistanceLimit:  defaultEmailDistanceLimit,
		},
		Download: Download{
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Jobs: Jobs{
			TTLSeconds: defaultJobTTLSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
