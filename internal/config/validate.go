package config

import (
	"fmt"

	"github.com/vidscribe/vidscribe/internal/models/whisper"
)

func (c *Config) Validate() error {
	if c.Tools.YtDlp == "" {
		return fmt.Errorf("invalid tools.yt_dlp: empty")
	}
	if c.Tools.FFmpeg == "" {
		return fmt.Errorf("invalid tools.ffmpeg: empty")
	}
	if c.Tools.WhisperCli == "" {
		return fmt.Errorf("invalid tools.whisper_cli: empty")
	}
	if c.Tools.ResolveTimeout < 0 {
		return fmt.Errorf("invalid tools.resolve_timeout: %v", c.Tools.ResolveTimeout)
	}
	if c.Tools.TranscodeTimeout < 0 {
		return fmt.Errorf("invalid tools.transcode_timeout: %v", c.Tools.TranscodeTimeout)
	}

	switch c.Transcode.Mode {
	case "stream", "disk":
	default:
		return fmt.Errorf("invalid transcode.mode: %q (must be stream or disk)", c.Transcode.Mode)
	}

	if len(c.Models.Dirs) == 0 {
		return fmt.Errorf("invalid models.dirs: at least one directory is required")
	}
	if c.Models.WhisperDir == "" {
		return fmt.Errorf("invalid models.whisper_dir: empty")
	}
	for _, a := range c.ModelArchives() {
		if a.URL == "" || a.Folder == "" {
			return fmt.Errorf("invalid models.archives.%s: archive_url and folder are both required", a.Language)
		}
	}

	if _, ok := whisper.Lookup(c.Batch.Model); !ok {
		return fmt.Errorf("invalid batch.model: %s (must be one of tiny, base, small, medium, large-v3 or an .en variant)", c.Batch.Model)
	}
	if c.Batch.Threads < 0 {
		return fmt.Errorf("invalid batch.threads: %d", c.Batch.Threads)
	}

	if c.Streaming.FrameSamples <= 0 {
		return fmt.Errorf("invalid streaming.frame_samples: %d", c.Streaming.FrameSamples)
	}

	if _, err := c.RoutingOverrides(); err != nil {
		return fmt.Errorf("invalid %w", err)
	}

	switch c.Cloud.Provider {
	case "":
		if c.UsesCloud() {
			return fmt.Errorf("invalid cloud.provider: routing selects the cloud engine but no provider is set")
		}
	case "openai", "deepgram":
		if c.APIKey(c.Cloud.Provider) == "" {
			return fmt.Errorf("%s API key required: not found in config (providers.%s.api_key) or environment variable (%s)",
				c.Cloud.Provider, c.Cloud.Provider, providerEnvVars[c.Cloud.Provider])
		}
	default:
		return fmt.Errorf("invalid cloud.provider: %s (must be openai or deepgram)", c.Cloud.Provider)
	}

	switch c.Notifications.Type {
	case "", "none", "desktop", "log":
	default:
		return fmt.Errorf("invalid notifications.type: %s (must be none, desktop or log)", c.Notifications.Type)
	}

	return nil
}

// CloudEnabled reports whether a cloud provider is configured.
func (c *Config) CloudEnabled() bool {
	return c.Cloud.Provider != ""
}
