// Package whispertest provides a scripted whisper.Engine for tests.
package whispertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bnosac/audiowhisper/pkg/whisper"
)

// Engine replays scripted segments. Script is called once per chunk; when
// it is nil, Segments are returned for the first chunk only.
type Engine struct {
	Multilingual bool
	EOT          int
	Segments     []whisper.Segment
	Script       func(chunk whisper.Chunk) []whisper.Segment
	Err          error
	SessionErr   error

	// RunFunc replaces the scripted decode when set.
	RunFunc func(ctx context.Context, cfg whisper.Config, store *whisper.Store) error

	// BeforeChunk runs inside each worker before it decodes.
	BeforeChunk func(chunk whisper.Chunk)

	runs atomic.Int32

	mu      sync.Mutex
	configs []whisper.Config
}

// New returns a multilingual engine with the multilingual EOT id.
func New(segments ...whisper.Segment) *Engine {
	return &Engine{Multilingual: true, EOT: whisper.TokenEOTMultilingual, Segments: segments}
}

func (e *Engine) IsMultilingual() bool { return e.Multilingual }
func (e *Engine) LangID(lang string) int { return whisper.LanguageID(lang) }
func (e *Engine) TokenEOT() int { return e.EOT }
func (e *Engine) Close() error { return nil }

// Runs returns how many times Session.Run was called.
func (e *Engine) Runs() int { return int(e.runs.Load()) }

// Configs returns every configuration passed to NewSession.
func (e *Engine) Configs() []whisper.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]whisper.Config(nil), e.configs...)
}

func (e *Engine) NewSession(cfg whisper.Config) (whisper.Session, error) {
	e.mu.Lock()
	e.configs = append(e.configs, cfg)
	e.mu.Unlock()
	if e.SessionErr != nil {
		return nil, e.SessionErr
	}
	return &session{engine: e, cfg: cfg}, nil
}

type session struct {
	whisper.Store
	engine *Engine
	cfg    whisper.Config
}

func (s *session) Run(ctx context.Context, samples []float32, processors int) error {
	s.engine.runs.Add(1)
	if s.engine.Err != nil {
		return s.engine.Err
	}
	if s.engine.RunFunc != nil {
		return s.engine.RunFunc(ctx, s.cfg, &s.Store)
	}
	window, base := whisper.Window(samples, s.cfg.OffsetMS, s.cfg.DurationMS)
	return whisper.RunParallel(ctx, window, processors, base, s.cfg, &s.Store, func(_ context.Context, c whisper.Chunk) ([]whisper.Segment, error) {
		if s.engine.BeforeChunk != nil {
			s.engine.BeforeChunk(c)
		}
		if s.engine.Script != nil {
			return s.engine.Script(c), nil
		}
		if c.Index == 0 {
			return append([]whisper.Segment(nil), s.engine.Segments...), nil
		}
		return nil, nil
	})
}

func (s *session) Close() error { return nil }

// Tok builds a token.
func Tok(id int, text string, p float32, t0, t1 int64) whisper.Token {
	return whisper.Token{ID: id, Text: text, P: p, T0: t0, T1: t1}
}

// Seg builds a segment whose text is the concatenation of its non-special
// tokens below eot.
func Seg(t0, t1 int64, eot int, tokens ...whisper.Token) whisper.Segment {
	text := ""
	for _, t := range tokens {
		if t.ID < eot {
			text += t.Text
		}
	}
	return whisper.Segment{T0: t0, T1: t1, Text: text, Tokens: tokens}
}
