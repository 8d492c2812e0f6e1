package whisper

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mudler/xlog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bnosac/audiowhisper/pkg/audio"
)

// RemoteTokenID marks tokens produced by a remote engine, which does not
// expose vocabulary ids.
const RemoteTokenID = -1

type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// Multilingual defaults to true unless the model name ends in ".en".
	Multilingual *bool
}

// RemoteEngine transcribes through an OpenAI compatible
// /v1/audio/transcriptions endpoint, such as LocalAI. Each processor sends
// one chunk of the audio as its own request.
type RemoteEngine struct {
	client       *openai.Client
	model        string
	multilingual bool
}

func NewRemoteEngine(rc RemoteConfig) *RemoteEngine {
	cfg := openai.DefaultConfig(rc.APIKey)
	if rc.BaseURL != "" {
		cfg.BaseURL = rc.BaseURL
	}
	model := rc.Model
	if model == "" {
		model = openai.Whisper1
	}
	multilingual := !strings.HasSuffix(model, ".en")
	if rc.Multilingual != nil {
		multilingual = *rc.Multilingual
	}
	return &RemoteEngine{
		client:       openai.NewClientWithConfig(cfg),
		model:        model,
		multilingual: multilingual,
	}
}

func (e *RemoteEngine) IsMultilingual() bool { return e.multilingual }
func (e *RemoteEngine) LangID(lang string) int { return LanguageID(lang) }
func (e *RemoteEngine) Close() error { return nil }

func (e *RemoteEngine) TokenEOT() int {
	if e.multilingual {
		return TokenEOTMultilingual
	}
	return TokenEOTEnglish
}

func (e *RemoteEngine) NewSession(cfg Config) (Session, error) {
	return &remoteSession{engine: e, cfg: cfg}, nil
}

type remoteSession struct {
	Store
	engine *RemoteEngine
	cfg    Config
}

func (s *remoteSession) Run(ctx context.Context, samples []float32, processors int) error {
	s.Reset()
	window, base := Window(samples, s.cfg.OffsetMS, s.cfg.DurationMS)
	if len(window) == 0 {
		return nil
	}
	return RunParallel(ctx, window, processors, base, s.cfg, &s.Store, s.transcribeChunk)
}

func (s *remoteSession) Close() error { return nil }

func (s *remoteSession) transcribeChunk(ctx context.Context, chunk Chunk) ([]Segment, error) {
	var wav bytes.Buffer
	if err := audio.EncodeWAV(&wav, chunk.Samples); err != nil {
		return nil, err
	}

	req := openai.AudioRequest{
		Model:    s.engine.model,
		FilePath: fmt.Sprintf("chunk-%03d.wav", chunk.Index),
		Reader:   &wav,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	}
	if s.cfg.Language != "" && s.cfg.Language != AutoLanguage {
		req.Language = s.cfg.Language
	}

	var (
		resp openai.AudioResponse
		err  error
	)
	if s.cfg.Translate {
		resp, err = s.engine.client.CreateTranslation(ctx, req)
	} else {
		resp, err = s.engine.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", chunk.Index, err)
	}

	xlog.Debug("remote chunk transcribed", "chunk", chunk.Index, "segments", len(resp.Segments), "words", len(resp.Words))

	return segmentsFromResponse(resp, len(chunk.Samples)), nil
}

func centis(sec float64) int64 {
	return int64(math.Round(sec * 100))
}

// segmentsFromResponse maps a verbose_json response onto segments. Words
// become tokens carrying the segment's mean probability; when the server
// returns no words each segment gets a single token holding its text.
func segmentsFromResponse(resp openai.AudioResponse, nSamples int) []Segment {
	if len(resp.Segments) == 0 {
		text := resp.Text
		if strings.TrimSpace(text) == "" {
			return nil
		}
		t1 := int64(nSamples) * 100 / SampleRate
		return []Segment{{T0: 0, T1: t1, Text: text, Tokens: []Token{{ID: RemoteTokenID, Text: text, P: 1, T0: 0, T1: t1}}}}
	}

	out := make([]Segment, 0, len(resp.Segments))
	w := 0
	for i, rs := range resp.Segments {
		p := float32(math.Exp(rs.AvgLogprob))
		if p > 1 {
			p = 1
		}
		seg := Segment{T0: centis(rs.Start), T1: centis(rs.End), Text: rs.Text}

		// The last segment takes every remaining word, including those
		// starting at or after its end.
		last := i == len(resp.Segments)-1
		for ; w < len(resp.Words) && (last || resp.Words[w].Start < rs.End); w++ {
			word := resp.Words[w]
			seg.Tokens = append(seg.Tokens, wordToken(word.Word, word.Start, word.End, p))
		}
		if len(seg.Tokens) == 0 {
			seg.Tokens = []Token{{ID: RemoteTokenID, Text: rs.Text, P: p, T0: seg.T0, T1: seg.T1}}
		}
		out = append(out, seg)
	}
	return out
}

func wordToken(text string, start, end float64, p float32) Token {
	return Token{
		ID:   RemoteTokenID,
		Text: " " + strings.TrimSpace(text),
		P:    p,
		T0:   centis(start),
		T1:   centis(end),
	}
}
