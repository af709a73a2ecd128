// Package pipeline is the single entry point for transcription requests:
// resolve, transcode, route, decode.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vidscribe/vidscribe/internal/language"
	"github.com/vidscribe/vidscribe/internal/media"
	"github.com/vidscribe/vidscribe/internal/transcriber"
)

// ErrorKind tells the caller which half of the request failed.
type ErrorKind string

const (
	AcquisitionFailed ErrorKind = "AcquisitionFailed"
	DecodeFailed      ErrorKind = "DecodeFailed"
)

// Stage is where a request currently is.
type Stage string

const (
	Resolving   Stage = "resolving"
	Transcoding Stage = "transcoding"
	Routing     Stage = "routing"
	Decoding    Stage = "decoding"
)

// TranscriptionResult is always returned, success or not. On failure
// ErrorKind is set and Text is empty.
type TranscriptionResult struct {
	Text         string           `json:"text"`
	LanguageUsed string           `json:"language_used"`
	EngineUsed   transcriber.Kind `json:"engine_used,omitempty"`
	ErrorKind    ErrorKind        `json:"error_kind,omitempty"`
	Error        string           `json:"error,omitempty"`

	Fallback            bool          `json:"fallback,omitempty"`
	DetectedLanguage    string        `json:"detected_language,omitempty"`
	LanguageProbability float64       `json:"language_probability,omitempty"`
	AudioDuration       time.Duration `json:"audio_duration,omitempty"`
}

func (r TranscriptionResult) Failed() bool { return r.ErrorKind != "" }

type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) (media.MediaSource, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, input string) (media.AudioBuffer, error)
	TranscodeViaDisk(ctx context.Context, resolvedURL string) (media.AudioBuffer, error)
}

type Router interface {
	Route(lang string, engine transcriber.Kind) (transcriber.Route, error)
}

// Options are the request-independent behaviors.
type Options struct {
	// Disk downloads the media to a temp file before transcoding.
	Disk bool
	// Reresolve retries resolution once when the media URL has expired.
	Reresolve bool
}

// Request is a single transcription job.
type Request struct {
	Source   string // URL, or local path when File is set
	File     bool
	Language string
	Engine   transcriber.Kind // empty uses the routing table
	Disk     bool             // per-request override of Options.Disk
}

type Pipeline struct {
	resolver   Resolver
	transcoder Transcoder
	router     Router
	opts       Options
}

func New(resolver Resolver, transcoder Transcoder, router Router, opts Options) *Pipeline {
	return &Pipeline{resolver: resolver, transcoder: transcoder, router: router, opts: opts}
}

// Transcribe fetches the audio behind sourceURL and transcribes it.
func (p *Pipeline) Transcribe(ctx context.Context, sourceURL, lang string) TranscriptionResult {
	return p.Run(ctx, Request{Source: sourceURL, Language: lang})
}

// TranscribeFile transcribes a local media file; there is nothing to resolve.
func (p *Pipeline) TranscribeFile(ctx context.Context, path, lang string) TranscriptionResult {
	return p.Run(ctx, Request{Source: path, File: true, Language: lang})
}

// Run executes one request. It never panics and never returns a partial
// transcript.
func (p *Pipeline) Run(ctx context.Context, req Request) (res TranscriptionResult) {
	lang := language.Normalize(req.Language)
	res.LanguageUsed = lang
	stage := Resolving
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: recovered panic while %s: %v", stage, r)
			res = failed(res, kindForStage(stage), fmt.Errorf("internal error while %s: %v", stage, r))
		}
	}()

	audio, err := p.acquire(ctx, req, &stage)
	if err != nil {
		log.Printf("pipeline: acquisition failed while %s %s: %v", stage, describe(req), err)
		return failed(res, AcquisitionFailed, err)
	}
	res.AudioDuration = audio.Duration()

	stage = Routing
	route, err := p.router.Route(lang, req.Engine)
	res.EngineUsed = route.Kind
	if err != nil {
		return failed(res, DecodeFailed, err)
	}
	res.LanguageUsed = route.ModelLanguage
	res.Fallback = route.Fallback

	stage = Decoding
	out, err := route.Adapter.Transcribe(ctx, audio, route.ModelLanguage)
	if err != nil {
		log.Printf("pipeline: %s failed for %s: %v", route.Kind, describe(req), err)
		return failed(res, DecodeFailed, err)
	}

	res.Text = out.Text
	res.DetectedLanguage = out.Language
	res.LanguageProbability = out.Probability
	log.Printf("pipeline: transcribed %v of %s audio with %s in %v", res.AudioDuration, res.LanguageUsed, route.Kind, time.Since(start))
	return res
}

func (p *Pipeline) acquire(ctx context.Context, req Request, stage *Stage) (media.AudioBuffer, error) {
	if req.File {
		*stage = Transcoding
		return p.transcoder.Transcode(ctx, req.Source)
	}

	*stage = Resolving
	src, err := p.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return media.AudioBuffer{}, err
	}

	*stage = Transcoding
	disk := p.opts.Disk || req.Disk
	audio, err := p.fetch(ctx, src.ResolvedURL, disk)

	var te *media.TranscodeError
	if err != nil && p.opts.Reresolve && errors.As(err, &te) && te.AccessDenied() {
		log.Printf("pipeline: media URL for %s was refused, resolving again", req.Source)
		*stage = Resolving
		if src, err = p.resolver.Resolve(ctx, req.Source); err != nil {
			return media.AudioBuffer{}, err
		}
		*stage = Transcoding
		audio, err = p.fetch(ctx, src.ResolvedURL, disk)
	}
	return audio, err
}

func (p *Pipeline) fetch(ctx context.Context, resolvedURL string, disk bool) (media.AudioBuffer, error) {
	if disk {
		return p.transcoder.TranscodeViaDisk(ctx, resolvedURL)
	}
	return p.transcoder.Transcode(ctx, resolvedURL)
}

func failed(res TranscriptionResult, kind ErrorKind, err error) TranscriptionResult {
	res.Text = ""
	res.ErrorKind = kind
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func kindForStage(s Stage) ErrorKind {
	if s == Resolving || s == Transcoding {
		return AcquisitionFailed
	}
	return DecodeFailed
}

func describe(req Request) string {
	if req.File {
		return "file " + req.Source
	}
	return req.Source
}
