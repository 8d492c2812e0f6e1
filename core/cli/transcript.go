package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mudler/xlog"
	"github.com/schollz/progressbar/v3"

	"github.com/bnosac/audiowhisper/core/application"
	"github.com/bnosac/audiowhisper/core/backend"
	cliContext "github.com/bnosac/audiowhisper/core/cli/context"
	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/core/schema"
	"github.com/bnosac/audiowhisper/pkg/format"
	"github.com/bnosac/audiowhisper/pkg/signals"
)

type TranscriptCMD struct {
	Files []string `arg:"" name:"files" type:"existingfile" help:"16 kHz 16 bit WAV files to transcribe"`

	Model      string `short:"m" env:"AUDIOWHISPER_MODEL" default:"ggml-base.en.bin" help:"Model definition or model file to run the transcription"`
	ModelsPath string `env:"AUDIOWHISPER_MODELS_PATH,MODELS_PATH" type:"path" default:"${basepath}/models" help:"Path containing models used for inferencing" group:"storage"`
	Library    string `env:"AUDIOWHISPER_LIBRARY" type:"path" help:"whisper shim library to load, defaults to libgowhisper from the library path" group:"storage"`

	Language   string `short:"l" help:"Spoken language, 'auto' to detect it"`
	Translate  bool   `short:"x" help:"Translate the transcription to english"`
	Diarize    bool   `short:"d" help:"Mark speaker turns from the energy of a stereo recording"`
	Threads    int    `short:"t" env:"AUDIOWHISPER_THREADS,THREADS" help:"Number of threads used per processor" group:"performance"`
	Processors int    `short:"p" help:"Number of processors the audio is split across, defaults to the model setting" group:"performance"`
	Offset     int    `help:"Time offset in milliseconds"`
	Duration   int    `help:"Duration of audio to process in milliseconds, 0 for all"`
	MaxContext *int   `help:"Maximum number of text context tokens to store"`
	MaxLen     int    `help:"Maximum segment length in characters, 0 for no limit"`

	WordThreshold   float32 `help:"Word timestamp probability threshold"`
	TokenTimestamps bool    `help:"Compute token level timestamps"`
	SpeedUp         bool    `help:"Speed up audio by a factor of two at reduced accuracy"`
	PrintSpecial    bool    `help:"Print special tokens"`
	PrintColors     bool    `help:"Color tokens by confidence"`
	NoTimestamps    bool    `help:"Do not print timestamps"`
	Trace           bool    `help:"Let the engine print segments as they are decoded"`
	Progress        bool    `help:"Show a progress bar"`

	Output []string `short:"o" help:"Write the transcript next to each input file, one file per format (json,text,srt,vtt,lrc,csv,tokens)"`
}

func (t *TranscriptCMD) Run(ctx *cliContext.Context) error {
	formats := make([]format.ResponseFormat, 0, len(t.Output))
	for _, o := range t.Output {
		f, err := format.ParseResponseFormat(o)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals.RegisterGracefulTerminationHandler(cancel)

	app, err := application.New(
		config.WithContext(runCtx),
		config.WithModelPath(t.ModelsPath),
		config.WithLibPath(t.Library),
		config.WithThreads(t.Threads),
		config.WithProcessors(t.Processors),
		config.WithDisableMetrics(true),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Shutdown(context.Background()); err != nil {
			xlog.Error("unable to stop the loaded models", "error", err)
		}
	}()

	engine, c, err := app.Engine(t.Model)
	if err != nil {
		return err
	}

	req := t.request()
	if err := c.ApplyDefaults(req); err != nil {
		return err
	}

	// Colors need a terminal on stdout unless CLICOLOR_FORCE is set.
	sink := backend.NewTerminalSink(os.Stdout)
	sink.NoColor = sink.NoColor || !t.PrintColors
	opts := []backend.TranscriptionOption{
		backend.WithSink(sink),
		backend.WithModelName(c.Name),
	}
	if t.Progress {
		bar := progressbar.NewOptions(
			100,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("transcribing %d file(s)", len(t.Files))),
			progressbar.OptionClearOnFinish(),
		)
		opts = append(opts, backend.WithProgress(func(p int) {
			if err := bar.Set(p); err != nil {
				xlog.Error("error while updating progress bar", "error", err, "value", p)
			}
		}))
	}

	results, err := backend.TranscribeFiles(runCtx, engine, req, t.Files, opts...)
	if err != nil {
		return err
	}

	for i, tr := range results {
		for _, w := range tr.Warnings {
			xlog.Warn(w, "file", t.Files[i])
		}
		for _, f := range formats {
			if err := writeTranscript(t.Files[i], tr, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTranscript(input string, tr *schema.TranscriptionResult, f format.ResponseFormat) error {
	out, err := format.TranscriptionResponse(tr, f)
	if err != nil {
		return err
	}
	dst := input + "." + outputExtension(f)
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	xlog.Info("Transcript written", "file", dst)
	return nil
}

func outputExtension(f format.ResponseFormat) string {
	switch f {
	case format.ResponseFormatText:
		return "txt"
	case format.ResponseFormatTokens:
		return "tokens.csv"
	default:
		return strings.ToLower(string(f))
	}
}

// request maps the flags onto a transcription request. Zero values are
// filled from the model configuration by ApplyDefaults.
func (t *TranscriptCMD) request() *schema.TranscriptionRequest {
	return &schema.TranscriptionRequest{
		Model:           t.Model,
		Language:        t.Language,
		Translate:       t.Translate,
		TokenTimestamps: t.TokenTimestamps,
		PrintSpecial:    t.PrintSpecial,
		Duration:        t.Duration,
		Offset:          t.Offset,
		Trace:           t.Trace,
		Threads:         t.Threads,
		Processors:      t.Processors,
		Diarize:         t.Diarize,
		NoTimestamps:    t.NoTimestamps,
		PrintColors:     t.PrintColors,
		MaxContext:      t.MaxContext,
		MaxLen:          t.MaxLen,
		WordThreshold:   t.WordThreshold,
		SpeedUp:         t.SpeedUp,
	}
}
