package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vidscribe/vidscribe/internal/bus"
	"github.com/vidscribe/vidscribe/internal/language"
	"github.com/vidscribe/vidscribe/internal/pipeline"
	"github.com/vidscribe/vidscribe/internal/transcriber"
	"github.com/vidscribe/vidscribe/internal/tui"
)

var errTranscriptionFailed = errors.New("transcription failed")

// requestFlags are shared by transcribe and send.
type requestFlags struct {
	file        string
	language    string
	engine      string
	disk        bool
	jsonOut     bool
	interactive bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "transcribe a local media file instead of a URL")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "spoken language code (default general.language)")
	cmd.Flags().StringVarP(&f.engine, "engine", "e", "", "force an engine: batch, streaming or cloud")
	cmd.Flags().BoolVar(&f.disk, "disk", false, "download the media to a temp file before transcoding")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "pick the language from a list")
}

// request turns the flags and positional URL into a pipeline request.
func (f *requestFlags) request(defaultLanguage string, args []string) (pipeline.Request, error) {
	var req pipeline.Request

	switch {
	case f.file != "" && len(args) > 0:
		return req, fmt.Errorf("give either a URL or --file, not both")
	case f.file != "":
		req.Source = f.file
		req.File = true
	case len(args) == 1:
		req.Source = args[0]
	default:
		return req, fmt.Errorf("a video URL or --file is required")
	}

	req.Language = f.language
	if req.Language == "" {
		req.Language = defaultLanguage
	}
	if f.interactive {
		if !tui.Interactive() {
			return req, fmt.Errorf("--interactive needs a terminal")
		}
		picked, err := tui.PickLanguage(language.Normalize(req.Language))
		if err != nil {
			return req, err
		}
		req.Language = picked
	}

	if f.engine != "" {
		kind, err := transcriber.ParseKind(f.engine)
		if err != nil {
			return req, err
		}
		req.Engine = kind
	}
	req.Disk = f.disk
	return req, nil
}

func (f *requestFlags) print(res pipeline.TranscriptionResult) error {
	if f.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Println(tui.RenderResult(res))
	}
	if res.Failed() {
		return errTranscriptionFailed
	}
	return nil
}

func transcribeCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "transcribe [url]",
		Short: "Transcribe a video in this process",
		Long: `Resolve the video with yt-dlp, decode its audio with ffmpeg and transcribe it
with the engine the language routes to. Models are downloaded on first use.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			restore, err := setupLogging(cfg, verbose)
			if err != nil {
				return err
			}
			defer restore()

			req, err := flags.request(cfg.General.Language, args)
			if err != nil {
				return err
			}

			svc, err := newServices(cfg, os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return flags.print(svc.pipeline.Run(ctx, req))
		},
	}
	flags.register(cmd)
	return cmd
}

func sendCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "send [url]",
		Short: "Transcribe a video through the running daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			req, err := flags.request(cfg.General.Language, args)
			if err != nil {
				return err
			}

			ep, err := bus.DefaultEndpoint()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			resp, err := ep.Send(ctx, bus.Request{
				Op:       bus.OpTranscribe,
				Source:   req.Source,
				File:     req.File,
				Language: req.Language,
				Engine:   string(req.Engine),
				Disk:     req.Disk,
			})
			if err != nil {
				return fmt.Errorf("failed to reach daemon: %w", err)
			}
			if resp.Result == nil {
				return fmt.Errorf("daemon: %s", resp.Error)
			}
			return flags.print(*resp.Result)
		},
	}
	flags.register(cmd)
	return cmd
}
