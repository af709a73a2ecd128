package config

import "time"

type Config struct {
	General   GeneralConfig             `toml:"general"`
	Tools     ToolsConfig               `toml:"tools"`
	Transcode TranscodeConfig           `toml:"transcode"`
	Models    ModelsConfig              `toml:"models"`
	Batch     BatchConfig               `toml:"batch"`
	Streaming StreamingConfig           `toml:"streaming"`
	Cloud     CloudConfig               `toml:"cloud"`
	Providers map[string]ProviderConfig `toml:"providers"`

	Notifications NotificationsConfig `toml:"notifications"`

	// Routing maps a language code to "batch", "streaming" or "cloud",
	// replacing that language's default engine.
	Routing map[string]string `toml:"routing"`
}

type GeneralConfig struct {
	Language string `toml:"language"` // default request language
	LogFile  string `toml:"log_file"` // empty logs to stderr
}

// ToolsConfig names the external executables and bounds how long they may run
type ToolsConfig struct {
	YtDlp            string        `toml:"yt_dlp"`
	FFmpeg           string        `toml:"ffmpeg"`
	WhisperCli       string        `toml:"whisper_cli"`
	ResolveTimeout   time.Duration `toml:"resolve_timeout"`
	TranscodeTimeout time.Duration `toml:"transcode_timeout"`
}

type TranscodeConfig struct {
	Mode                   string `toml:"mode"` // "stream" or "disk"
	TempDir                string `toml:"temp_dir"`
	ReresolveOnAccessError bool   `toml:"reresolve_on_access_error"`
}

type ModelsConfig struct {
	// Dirs are probed in order; new models are installed into the first.
	Dirs       []string                 `toml:"dirs"`
	WhisperDir string                   `toml:"whisper_dir"`
	Archives   map[string]ArchiveConfig `toml:"archives"`
}

// ArchiveConfig adds or replaces the streaming model archive for a language
type ArchiveConfig struct {
	URL    string `toml:"archive_url"`
	Folder string `toml:"folder"`
}

type BatchConfig struct {
	Model   string `toml:"model"`   // whisper size tier or model id
	Threads int    `toml:"threads"` // 0 = auto: NumCPU-1
}

type StreamingConfig struct {
	FrameSamples int `toml:"frame_samples"`
}

type CloudConfig struct {
	Provider string `toml:"provider"` // "openai" or "deepgram"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
}

// ProviderConfig holds API key for a provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

// NotificationsConfig controls how the daemon reports finished requests
type NotificationsConfig struct {
	Type string `toml:"type"` // "none", "desktop" or "log"
}
