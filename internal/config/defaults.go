package config

const (
	defaultOutDir            = "~/.local/share/reviewforge"
	defaultLogDir            = "~/.local/share/reviewforge/logs"
	defaultLanguage          = "english"
	defaultMaxReviews        = 80000
	defaultFilter            = "recent"
	defaultOffTopicFilter    = 1
	defaultPageSize          = 100
	defaultRequestTimeout    = 20
	defaultPageDelayMS       = 500
	defaultWorkerBinary      = "ollama"
	defaultWorkerModel       = "analyst"
	defaultWorkerTimeout     = 90
	defaultWorkerConcurrency = 6
	defaultMinConfidence     = 0.6
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutDir: defaultOutDir,
			LogDir: defaultLogDir,
		},
		Steam: Steam{
			Language:       defaultLanguage,
			MaxReviews:     defaultMaxReviews,
			Filter:         defaultFilter,
			OffTopicFilter: defaultOffTopicFilter,
			PageSize:       defaultPageSize,
			RequestTimeout: defaultRequestTimeout,
			PageDelayMS:    defaultPageDelayMS,
		},
		Worker: Worker{
			Binary:         defaultWorkerBinary,
			Model:          defaultWorkerModel,
			TimeoutSeconds: defaultWorkerTimeout,
			Concurrency:    defaultWorkerConcurrency,
		},
		Extract: Extract{
			MinConfidence: defaultMinConfidence,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
