package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/vidscribe/vidscribe/internal/command"
	"github.com/vidscribe/vidscribe/internal/config"
	"github.com/vidscribe/vidscribe/internal/media"
	"github.com/vidscribe/vidscribe/internal/models"
	"github.com/vidscribe/vidscribe/internal/models/whisper"
	"github.com/vidscribe/vidscribe/internal/pipeline"
	"github.com/vidscribe/vidscribe/internal/transcriber"
)

// services is everything one configuration wires together.
type services struct {
	cfg      *config.Config
	runner   command.Runner
	models   *models.Manager
	whisper  *whisper.Store
	router   *transcriber.Router
	pipeline *pipeline.Pipeline
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setupLogging sends the standard logger to general.log_file when set, and
// otherwise to stderr only when verbose.
func setupLogging(cfg *config.Config, verbose bool) (func(), error) {
	if cfg.General.LogFile == "" {
		if verbose {
			log.SetOutput(os.Stderr)
		} else {
			log.SetOutput(io.Discard)
		}
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

// newServices builds the pipeline for cfg. Download progress goes to
// progress when it is not nil.
func newServices(cfg *config.Config, progress io.Writer) (*services, error) {
	runner := command.Exec{}

	var mopts []models.Option
	if progress != nil {
		mopts = append(mopts, models.WithProgress(progressPrinter(progress, "speech model")))
	}
	mgr, err := models.NewManager(cfg.Models.Dirs, cfg.ModelArchives(), mopts...)
	if err != nil {
		return nil, err
	}

	store := whisper.NewStore(cfg.Models.WhisperDir)
	if progress != nil {
		store.OnProgress = progressPrinter(progress, "whisper model")
	}

	adapters := []transcriber.Adapter{
		transcriber.NewBatchAdapter(runner, store, transcriber.BatchOptions{
			Tool:    cfg.Tools.WhisperCli,
			Tier:    cfg.Batch.Model,
			Threads: cfg.Batch.Threads,
			TempDir: cfg.Transcode.TempDir,
		}),
		transcriber.NewStreamingAdapter(mgr, transcriber.NewVoskBackend(), cfg.Streaming.FrameSamples),
	}
	if cfg.CloudEnabled() {
		adapters = append(adapters, transcriber.NewCloudAdapter(cloudProvider(cfg)))
	}

	overrides, err := cfg.RoutingOverrides()
	if err != nil {
		return nil, err
	}
	router := transcriber.NewRouter(adapters, overrides)

	var topts []media.TranscoderOption
	if cfg.Transcode.TempDir != "" {
		topts = append(topts, media.WithTempDir(cfg.Transcode.TempDir))
	}

	p := pipeline.New(
		media.NewResolver(runner, cfg.Tools.YtDlp, cfg.Tools.ResolveTimeout),
		media.NewTranscoder(runner, cfg.Tools.FFmpeg, cfg.Tools.TranscodeTimeout, topts...),
		router,
		pipeline.Options{
			Disk:      cfg.Transcode.Mode == "disk",
			Reresolve: cfg.Transcode.ReresolveOnAccessError,
		},
	)

	return &services{
		cfg:      cfg,
		runner:   runner,
		models:   mgr,
		whisper:  store,
		router:   router,
		pipeline: p,
	}, nil
}

func cloudProvider(cfg *config.Config) transcriber.CloudProvider {
	key := cfg.APIKey(cfg.Cloud.Provider)
	switch cfg.Cloud.Provider {
	case "deepgram":
		return transcriber.NewDeepgramProvider(key, cfg.Cloud.BaseURL, cfg.Cloud.Model)
	default:
		return transcriber.NewOpenAIProvider(key, cfg.Cloud.BaseURL, cfg.Cloud.Model)
	}
}

// progressPrinter reports a download every 10 percent.
func progressPrinter(w io.Writer, label string) func(downloaded, total int64) {
	var mu sync.Mutex
	last := -10
	return func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		percent := int(downloaded * 100 / total)
		mu.Lock()
		defer mu.Unlock()
		if percent < last {
			last = -10 // next download
		}
		if percent >= last+10 {
			fmt.Fprintf(w, "downloading %s: %d%%\n", label, percent)
			last = percent
		}
	}
}
