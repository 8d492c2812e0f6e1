// Package whisper defines the contract between the transcription pipeline
// and a speech recognition engine, plus the engines shipped with
// audiowhisper: a native whisper.cpp engine loaded with purego and a remote
// engine speaking the OpenAI transcription API.
//
// All times exchanged with an engine are centiseconds.
package whisper

import (
	"context"
	"errors"

	"github.com/bnosac/audiowhisper/pkg/xsysinfo"
)

// SampleRate is the PCM rate every engine expects.
const SampleRate = 16000

// End-of-text token ids of the English-only and multilingual vocabularies.
// Ids at or above the EOT are control tokens.
const (
	TokenEOTEnglish      = 50256
	TokenEOTMultilingual = 50257
)

var (
	ErrAborted    = errors.New("inference aborted")
	ErrRunFailed  = errors.New("failed to process audio")
	ErrNotLoaded  = errors.New("model not loaded")
	ErrModelInUse = errors.New("another model is already loaded in this process")
)

// TokenData is the token-level detail of a decoded token.
type TokenData struct {
	ID     int
	P      float32
	T0, T1 int64
}

// Results exposes the result store of a finished (or running) inference.
type Results interface {
	NSegments() int
	SegmentText(i int) string
	SegmentT0(i int) int64
	SegmentT1(i int) int64
	NTokens(i int) int
	TokenID(i, j int) int
	TokenText(i, j int) string
	TokenP(i, j int) float32
	TokenData(i, j int) TokenData
}

// NewSegmentFunc is invoked after each batch of newly finalized segments;
// the batch is the last nNew segments of r.
type NewSegmentFunc func(r Results, nNew int)

// EncoderBeginFunc is checked before each encoder pass. Returning false
// aborts the run.
type EncoderBeginFunc func() bool

// ProgressFunc receives a completion percentage.
type ProgressFunc func(progress int)

// Config is the per-request engine configuration. It is built once and
// handed to Engine.NewSession.
type Config struct {
	Language        string
	Translate       bool
	Threads         int
	MaxTextContext  int
	OffsetMS        int
	DurationMS      int
	PrintSpecial    bool
	PrintRealtime   bool
	PrintProgress   bool
	PrintTimestamps bool
	TokenTimestamps bool
	TokenThreshold  float32
	MaxLen          int
	SpeedUp         bool

	NewSegment   NewSegmentFunc
	EncoderBegin EncoderBeginFunc
	Progress     ProgressFunc
}

// DefaultConfig mirrors whisper.cpp's greedy sampling defaults.
func DefaultConfig() Config {
	return Config{
		Language:        "en",
		Threads:         xsysinfo.DefaultThreads(),
		MaxTextContext:  16384,
		PrintProgress:   true,
		PrintTimestamps: true,
		TokenThreshold:  0.01,
	}
}

// Engine is a loaded recognition model.
type Engine interface {
	IsMultilingual() bool
	// LangID returns the vocabulary id of a language code, or -1.
	LangID(lang string) int
	TokenEOT() int
	NewSession(cfg Config) (Session, error)
	Close() error
}

// Session is one inference over one buffer. It owns its result store until
// Close; engines that cannot hold several stores serialize sessions.
type Session interface {
	Results
	Run(ctx context.Context, samples []float32, processors int) error
	Close() error
}
