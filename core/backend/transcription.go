package backend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/core/schema"
	"github.com/bnosac/audiowhisper/pkg/audio"
	"github.com/bnosac/audiowhisper/pkg/whisper"
	"github.com/bnosac/audiowhisper/pkg/xsysinfo"
)

var (
	ErrNoInput         = errors.New("no input files specified")
	ErrUnknownLanguage = errors.New("unknown language")
	ErrEngine          = errors.New("failed to process audio")
)

const defaultLanguage = "en"

// ModelTranscription loads req.File, runs it through engine and assembles
// the transcript. Input validation happens before inference; engine
// failures return ErrEngine and no partial result.
func ModelTranscription(ctx context.Context, engine whisper.Engine, req *schema.TranscriptionRequest, opts ...TranscriptionOption) (*schema.TranscriptionResult, error) {
	o := newTranscriptionOptions(opts...)

	if req.File == "" {
		return nil, ErrNoInput
	}

	lang := req.Language
	if lang == "" {
		lang = defaultLanguage
	}
	if lang != whisper.AutoLanguage && engine.LangID(lang) == -1 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}

	translate := req.Translate
	var warnings []string
	if !engine.IsMultilingual() && (lang != defaultLanguage || translate) {
		xlog.Warn("model is not multilingual, ignoring language and translation options", "language", lang, "translate", translate)
		warnings = append(warnings, fmt.Sprintf("model is not multilingual, ignoring language (%s) and translation options", lang))
		lang = defaultLanguage
		translate = false
	}

	buf, err := audio.Load(req.File, audio.LoadOptions{Diarize: req.Diarize, NoTimestamps: req.NoTimestamps})
	if err != nil {
		return nil, err
	}

	processors := max(1, req.Processors)

	cfg := whisper.DefaultConfig()
	cfg.Language = lang
	cfg.Translate = translate
	if req.Threads > 0 {
		cfg.Threads = req.Threads
	}
	if req.MaxContext != nil && *req.MaxContext >= 0 {
		cfg.MaxTextContext = *req.MaxContext
	}
	cfg.OffsetMS = req.Offset
	cfg.DurationMS = req.Duration
	cfg.PrintSpecial = req.PrintSpecial
	cfg.PrintRealtime = req.Trace
	cfg.PrintProgress = false
	cfg.PrintTimestamps = !req.NoTimestamps
	cfg.TokenTimestamps = req.TokenTimestamps
	if req.WordThreshold > 0 {
		cfg.TokenThreshold = req.WordThreshold
	}
	cfg.MaxLen = req.MaxLen
	cfg.SpeedUp = req.SpeedUp

	var aborted atomic.Bool
	stop := context.AfterFunc(ctx, func() { aborted.Store(true) })
	defer stop()
	cfg.EncoderBegin = func() bool { return !aborted.Load() }

	if !req.Trace {
		lp := &livePrinter{
			sink:         o.sink,
			eot:          engine.TokenEOT(),
			printSpecial: req.PrintSpecial,
			printColors:  req.PrintColors,
			timestamps:   !req.NoTimestamps || req.Diarize,
			diarize:      req.Diarize,
			stereo:       buf.Stereo,
		}
		cfg.NewSegment = lp.onNewSegment
	}
	cfg.Progress = o.progress

	task := "transcribe"
	if translate {
		task = "translate"
	}
	xlog.Debug("system_info", "info", xsysinfo.SystemInfo(cfg.Threads, processors))
	xlog.Info(fmt.Sprintf("Processing %s (%d samples, %.1f sec)", req.File, len(buf.Mono), buf.Seconds()),
		"threads", cfg.Threads, "processors", processors, "lang", lang, "task", task, "timestamps", cfg.PrintTimestamps)

	session, err := engine.NewSession(cfg)
	if err != nil {
		o.observeFailure(ctx)
		return nil, fmt.Errorf("%w: %w", ErrEngine, err)
	}
	defer session.Close()

	start := time.Now()
	err = session.Run(ctx, buf.Mono, processors)
	// An engine may stop early on the abort hook and still report success;
	// the partial transcript is discarded.
	if err == nil && aborted.Load() {
		err = whisper.ErrAborted
	}
	if err != nil {
		o.observeFailure(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrEngine, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrEngine, err)
	}
	took := time.Since(start)

	segments, tokens := assemble(session, assembleOptions{
		eot:             engine.TokenEOT(),
		printSpecial:    req.PrintSpecial,
		tokenTimestamps: req.TokenTimestamps,
		diarize:         req.Diarize,
		stereo:          buf.Stereo,
	})

	if o.metrics != nil {
		o.metrics.ObserveTranscription(ctx, o.modelName, took, buf.Seconds(), len(segments))
	}
	xlog.Debug("transcription done", "file", req.File, "segments", len(segments), "took", took)

	return &schema.TranscriptionResult{
		ID:        uuid.New().String(),
		NSegments: len(segments),
		Segments:  segments,
		Tokens:    tokens,
		Params: schema.TranscriptionParams{
			Audio:           req.File,
			Language:        lang,
			Offset:          req.Offset,
			Duration:        req.Duration,
			Translate:       translate,
			TokenTimestamps: req.TokenTimestamps,
			WordThreshold:   cfg.TokenThreshold,
		},
		Warnings: warnings,
	}, nil
}

// TranscribeFiles runs ModelTranscription for every path, stopping at the
// first failure.
func TranscribeFiles(ctx context.Context, engine whisper.Engine, req *schema.TranscriptionRequest, paths []string, opts ...TranscriptionOption) ([]*schema.TranscriptionResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}

	results := make([]*schema.TranscriptionResult, 0, len(paths))
	for _, p := range paths {
		r := *req
		r.File = p
		tr, err := ModelTranscription(ctx, engine, &r, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		results = append(results, tr)
	}
	return results, nil
}
