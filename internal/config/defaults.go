package config

const (
	defaultBaseFolder        = "~/.local/share/voicetovision/ideas"
	defaultTempFolder        = "~/.local/share/voicetovision/tmp"
	defaultInboxDir          = "~/.local/share/voicetovision/inbox"
	defaultLogDir            = "~/.local/share/voicetovision/logs"
	defaultMaxAudioSizeMB    = 25
	defaultMaxFilenameLength = 50
	defaultLinkExpiryMinutes = 30
	defaultMaxConcurrentJobs = 2
	defaultQueueCapacity     = 16
	defaultWhisperBinary     = "whisper"
	defaultWhisperModel      = "base"
	defaultWhisperTimeout    = 600
	defaultOllamaBaseURL     = "http://127.0.0.1:11434"
	defaultOllamaModel       = "llama3.1"
	defaultOllamaTimeout     = 120
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultSweepInterval     = 60
	defaultInboxSettle       = 500
)

func defaultSupportedFormats() []string {
	return []string{".mp3", ".wav", ".ogg", ".m4a", ".opus"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		System: System{
			BaseFolder:        defaultBaseFolder,
			TempFolder:        defaultTempFolder,
			InboxDir:          defaultInboxDir,
			LogDir:            defaultLogDir,
			MaxAudioSizeMB:    defaultMaxAudioSizeMB,
			MaxFilenameLength: defaultMaxFilenameLength,
			LinkExpiryMinutes: defaultLinkExpiryMinutes,
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			QueueCapacity:     defaultQueueCapacity,
			AutoDeleteEnabled: false,
			SupportedFormats:  defaultSupportedFormats(),
		},
		Whisper: Whisper{
			Binary:         defaultWhisperBinary,
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultWhisperTimeout,
		},
		Ollama: Ollama{
			BaseURL:        defaultOllamaBaseURL,
			Model:          defaultOllamaModel,
			TimeoutSeconds: defaultOllamaTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Ideas:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Workflow: Workflow{
			SweepIntervalSeconds: defaultSweepInterval,
			InboxSettleMillis:    defaultInboxSettle,
		},
	}
}
