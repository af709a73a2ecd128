package config

import (
	"os"
	"path/filepath"
	"time"
)

// legacy model locations, relative to the working directory
var legacyModelDirs = []string{"model", "models", "../modules/model", "../model"}

// DataDir returns the base directory for downloaded models.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "vidscribe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vidscribe")
	}
	return filepath.Join(home, ".local", "share", "vidscribe")
}

// DefaultConfig returns the configuration used when no file is present.
// Load decodes the file on top of it, so absent keys keep these values.
func DefaultConfig() *Config {
	data := DataDir()
	return &Config{
		General: GeneralConfig{
			Language: "en",
		},
		Tools: ToolsConfig{
			YtDlp:            "yt-dlp",
			FFmpeg:           "ffmpeg",
			WhisperCli:       "whisper-cli",
			ResolveTimeout:   60 * time.Second,
			TranscodeTimeout: 30 * time.Minute,
		},
		Transcode: TranscodeConfig{
			Mode:                   "stream",
			ReresolveOnAccessError: true,
		},
		Models: ModelsConfig{
			Dirs:       append([]string{filepath.Join(data, "models")}, legacyModelDirs...),
			WhisperDir: filepath.Join(data, "models", "whisper"),
			Archives:   make(map[string]ArchiveConfig),
		},
		Batch: BatchConfig{
			Model: "base",
		},
		Streaming: StreamingConfig{
			FrameSamples: 4000,
		},
		Providers: make(map[string]ProviderConfig),
		Routing:   make(map[string]string),
		Notifications: NotificationsConfig{
			Type: "none",
		},
	}
}
