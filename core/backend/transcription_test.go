package backend_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/muesli/termenv"

	. "github.com/bnosac/audiowhisper/core/backend"
	"github.com/bnosac/audiowhisper/core/schema"
	"github.com/bnosac/audiowhisper/core/services"
	"github.com/bnosac/audiowhisper/pkg/audio"
	"github.com/bnosac/audiowhisper/pkg/diarize"
	"github.com/bnosac/audiowhisper/pkg/whisper"
	"github.com/bnosac/audiowhisper/pkg/whisper/whispertest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const eot = whisper.TokenEOTMultilingual

func writeWAV(path string, channels int, data []int) {
	f, err := os.Create(path)
	Expect(err).ToNot(HaveOccurred())
	defer f.Close()

	enc := wav.NewEncoder(f, 16000, 16, channels, 1)
	Expect(enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: 16,
	})).To(Succeed())
	Expect(enc.Close()).To(Succeed())
}

// recordingSink keeps everything written to it.
type recordingSink struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	buckets []int
}

func (r *recordingSink) Text(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(s)
}

func (r *recordingSink) Colored(s string, bucket int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(s)
	r.buckets = append(r.buckets, bucket)
}

func (r *recordingSink) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

var _ = Describe("ModelTranscription", func() {
	var (
		dir    string
		mono   string
		stereo string
		engine *whispertest.Engine
		ctx    context.Context
	)

	hello := func() []whisper.Segment {
		return []whisper.Segment{
			whispertest.Seg(0, 100, eot,
				whispertest.Tok(eot+1, "[_BEG_]", 0.9, 0, 0),
				whispertest.Tok(11, " Hello", 0.8, 10, 40),
				whispertest.Tok(12, " there.", 0.6, 40, 90),
			),
			whispertest.Seg(100, 200, eot,
				whispertest.Tok(13, " Bye.", 0.99, 120, 180),
				whispertest.Tok(eot, "[_EOT_]", 0.5, 200, 200),
			),
		}
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		ctx = context.Background()

		mono = filepath.Join(dir, "silence.wav")
		writeWAV(mono, 1, make([]int, 2*16000))

		// speaker 0 loud on the left for the first second, speaker 1 on the
		// right for the second one
		frames := 2 * 16000
		data := make([]int, 2*frames)
		for i := range frames {
			if i < 16000 {
				data[2*i] = 8000
				data[2*i+1] = 100
			} else {
				data[2*i] = 100
				data[2*i+1] = 8000
			}
		}
		stereo = filepath.Join(dir, "stereo.wav")
		writeWAV(stereo, 2, data)

		engine = whispertest.New(hello()...)
	})

	It("transcribes two seconds of silence without error", func() {
		engine = whispertest.New()
		tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono})
		Expect(err).ToNot(HaveOccurred())
		Expect(tr.NSegments).To(BeNumerically(">=", 0))
		Expect(tr.ID).ToNot(BeEmpty())
		Expect(tr.Params.Audio).To(Equal(mono))
		Expect(tr.Params.Language).To(Equal("en"))
		Expect(tr.Params.WordThreshold).To(BeNumerically("~", 0.01, 1e-6))
		Expect(engine.Runs()).To(Equal(1))
	})

	It("builds the segment table", func() {
		tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono})
		Expect(err).ToNot(HaveOccurred())
		Expect(tr.NSegments).To(Equal(2))
		Expect(tr.Segments[0]).To(Equal(schema.TranscriptionSegment{Index: 0, From: "00:00:00.000", To: "00:00:01.000", Text: " Hello there."}))
		Expect(tr.Segments[1].Index).To(Equal(1))
		Expect(tr.Segments[1].From).To(Equal("00:00:01.000"))
		Expect(tr.Text()).To(Equal(" Hello there. Bye."))
	})

	Context("special tokens", func() {
		It("hides tokens at or above the end-of-text id", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono})
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Tokens).To(HaveLen(3))
			for _, t := range tr.Tokens {
				Expect(t.ID).To(BeNumerically("<", eot))
			}
			Expect(tr.Tokens[2].Segment).To(Equal(1))
		})

		It("keeps them when requested", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, PrintSpecial: true})
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Tokens).To(HaveLen(5))
			Expect(tr.Tokens[0].Text).To(Equal("[_BEG_]"))
		})
	})

	Context("token timestamps", func() {
		It("takes them from token level data", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, TokenTimestamps: true})
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Params.TokenTimestamps).To(BeTrue())
			for _, t := range tr.Tokens {
				Expect(t.From).ToNot(BeEmpty())
				Expect(t.To).ToNot(BeEmpty())
			}
			Expect(tr.Tokens[0].From).To(Equal("00:00:00.100"))
			Expect(tr.Tokens[0].To).To(Equal("00:00:00.400"))
			Expect(tr.Tokens[2].From).To(Equal("00:00:01.200"))
			Expect(engine.Configs()[0].TokenTimestamps).To(BeTrue())
		})

		It("leaves them empty otherwise", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono})
			Expect(err).ToNot(HaveOccurred())
			for _, t := range tr.Tokens {
				Expect(t.From).To(BeEmpty())
				Expect(t.To).To(BeEmpty())
			}
		})
	})

	Context("validation", func() {
		It("requires an input", func() {
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{})
			Expect(err).To(MatchError(ErrNoInput))
			_, err = TranscribeFiles(ctx, engine, &schema.TranscriptionRequest{}, nil)
			Expect(err).To(MatchError(ErrNoInput))
		})

		It("fails fast on an unknown language", func() {
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: filepath.Join(dir, "missing.wav"), Language: "klingon"})
			Expect(err).To(MatchError(ErrUnknownLanguage))
			Expect(engine.Runs()).To(BeZero())
		})

		It("accepts auto detection", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, Language: whisper.AutoLanguage})
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Params.Language).To(Equal(whisper.AutoLanguage))
		})

		It("rejects diarization without timestamps before inference", func() {
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: stereo, Diarize: true, NoTimestamps: true})
			Expect(err).To(MatchError(audio.ErrDiarizeTimestamps))
			Expect(engine.Runs()).To(BeZero())
		})

		It("rejects diarization of mono audio", func() {
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, Diarize: true})
			Expect(err).To(MatchError(audio.ErrDiarizeStereo))
			Expect(engine.Runs()).To(BeZero())
		})
	})

	Context("English-only models", func() {
		BeforeEach(func() {
			engine.Multilingual = false
			engine.EOT = whisper.TokenEOTEnglish
		})

		It("forces English and disables translation with a warning", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, Language: "de", Translate: true})
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Warnings).To(HaveLen(1))
			Expect(tr.Params.Language).To(Equal("en"))
			Expect(tr.Params.Translate).To(BeFalse())

			cfg := engine.Configs()[0]
			Expect(cfg.Language).To(Equal("en"))
			Expect(cfg.Translate).To(BeFalse())
		})

		It("does not warn for plain English", func() {
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono})
			Expect(err).ToNot(HaveOccurred())
			Expect(tr.Warnings).To(BeEmpty())
		})
	})

	It("labels speakers by channel energy", func() {
		tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: stereo, Diarize: true})
		Expect(err).ToNot(HaveOccurred())
		Expect(tr.Segments[0].Speaker).To(Equal(string(diarize.Speaker0)))
		Expect(tr.Segments[1].Speaker).To(Equal(string(diarize.Speaker1)))
	})

	It("leaves speakers empty without diarization", func() {
		tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: stereo})
		Expect(err).ToNot(HaveOccurred())
		Expect(tr.Segments[0].Speaker).To(BeEmpty())
	})

	It("keeps chunk order across processors", func() {
		engine.Script = func(c whisper.Chunk) []whisper.Segment {
			return []whisper.Segment{whispertest.Seg(0, 10, eot, whispertest.Tok(c.Index, string(rune('a'+c.Index)), 1, 0, 10))}
		}
		tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, Processors: 4})
		Expect(err).ToNot(HaveOccurred())
		Expect(tr.Text()).To(Equal("abcd"))
		Expect(tr.Segments[1].From).To(Equal("00:00:00.500"))
		Expect(tr.Segments[3].Index).To(Equal(3))
	})

	It("maps request parameters onto the engine config", func() {
		maxCtx := 64
		_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{
			File: mono, Threads: 3, MaxContext: &maxCtx, Offset: 500, Duration: 1000,
			WordThreshold: 0.2, MaxLen: 30, SpeedUp: true,
		})
		Expect(err).ToNot(HaveOccurred())
		cfg := engine.Configs()[0]
		Expect(cfg.Threads).To(Equal(3))
		Expect(cfg.MaxTextContext).To(Equal(64))
		Expect(cfg.OffsetMS).To(Equal(500))
		Expect(cfg.DurationMS).To(Equal(1000))
		Expect(cfg.TokenThreshold).To(BeNumerically("~", 0.2, 1e-6))
		Expect(cfg.MaxLen).To(Equal(30))
		Expect(cfg.SpeedUp).To(BeTrue())
		Expect(cfg.PrintTimestamps).To(BeTrue())
	})

	Context("engine failures", func() {
		It("wraps run errors", func() {
			engine.Err = errors.New("boom")
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono})
			Expect(err).To(MatchError(ErrEngine))
			Expect(tr).To(BeNil())
		})

		It("reports cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := ModelTranscription(cctx, engine, &schema.TranscriptionRequest{File: mono})
			Expect(err).To(MatchError(ErrEngine))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		It("flips the abort hook when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			engine.BeforeChunk = func(whisper.Chunk) {
				defer GinkgoRecover()
				cfg := engine.Configs()[0]
				Expect(cfg.EncoderBegin()).To(BeTrue())
				cancel()
				Eventually(cfg.EncoderBegin).Should(BeFalse())
			}
			_, _ = ModelTranscription(cctx, engine, &schema.TranscriptionRequest{File: mono})
		})

		It("discards a partial transcript when the run stops early without error", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			engine.RunFunc = func(_ context.Context, cfg whisper.Config, store *whisper.Store) error {
				store.Append(hello()[0])
				cancel()
				Eventually(cfg.EncoderBegin).Should(BeFalse())
				return nil
			}
			tr, err := ModelTranscription(cctx, engine, &schema.TranscriptionRequest{File: mono})
			Expect(err).To(MatchError(ErrEngine))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(tr).To(BeNil())
		})

		It("counts session failures", func() {
			m, err := services.NewTranscriptionMetrics()
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(m.Shutdown, context.Background())

			engine.SessionErr = errors.New("no session")
			tr, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono},
				WithMetrics(m), WithModelName("base.en"))
			Expect(err).To(MatchError(ErrEngine))
			Expect(tr).To(BeNil())
			Expect(engine.Runs()).To(BeZero())

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(rec.Body.String()).To(ContainSubstring("transcription_failures"))
			Expect(rec.Body.String()).To(ContainSubstring(`model="base.en"`))
		})
	})

	Context("live output", func() {
		It("prints segments with timestamps after a separator", func() {
			sink := &recordingSink{}
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono}, WithSink(sink))
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.String()).To(Equal("\n[00:00:00.000 --> 00:00:01.000]   Hello there.\n[00:00:01.000 --> 00:00:02.000]   Bye.\n"))
		})

		It("prints plain text without timestamps", func() {
			sink := &recordingSink{}
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, NoTimestamps: true}, WithSink(sink))
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.String()).To(Equal("\n Hello there. Bye."))
		})

		It("adds speakers when diarizing", func() {
			sink := &recordingSink{}
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: stereo, Diarize: true}, WithSink(sink))
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.String()).To(ContainSubstring("]  (speaker 0) Hello there.\n"))
			Expect(sink.String()).To(ContainSubstring("]  (speaker 1) Bye.\n"))
		})

		It("colors tokens by confidence and skips special ones", func() {
			sink := &recordingSink{}
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, PrintColors: true}, WithSink(sink))
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.String()).ToNot(ContainSubstring("[_BEG_]"))
			Expect(sink.buckets).To(Equal([]int{
				ColorBucket(0.8, len(Palette)),
				ColorBucket(0.6, len(Palette)),
				ColorBucket(0.99, len(Palette)),
			}))
		})

		It("stays silent in trace mode", func() {
			sink := &recordingSink{}
			_, err := ModelTranscription(ctx, engine, &schema.TranscriptionRequest{File: mono, Trace: true}, WithSink(sink))
			Expect(err).ToNot(HaveOccurred())
			Expect(sink.String()).To(BeEmpty())
			Expect(engine.Configs()[0].NewSegment).To(BeNil())
			Expect(engine.Configs()[0].PrintRealtime).To(BeTrue())
		})
	})

	It("transcribes a list of files in order", func() {
		trs, err := TranscribeFiles(ctx, engine, &schema.TranscriptionRequest{}, []string{mono, stereo})
		Expect(err).ToNot(HaveOccurred())
		Expect(trs).To(HaveLen(2))
		Expect(trs[0].Params.Audio).To(Equal(mono))
		Expect(trs[1].Params.Audio).To(Equal(stereo))
	})
})

var _ = Describe("ColorBucket", func() {
	It("uses a cubic scale clamped to the bin count", func() {
		Expect(ColorBucket(0, 10)).To(Equal(0))
		Expect(ColorBucket(0.5, 10)).To(Equal(1))
		Expect(ColorBucket(0.9, 10)).To(Equal(7))
		Expect(ColorBucket(1, 10)).To(Equal(10))
		Expect(ColorBucket(1.5, 10)).To(Equal(10))
	})

	It("is clamped to the palette by the terminal sink", func() {
		var out bytes.Buffer
		s := NewTerminalSink(&out, termenv.WithProfile(termenv.ANSI256))
		Expect(s.NoColor).To(BeFalse())
		s.Colored("x", 10)
		Expect(out.String()).To(Equal("\x1b[38;5;82mx\x1b[0m"))

		out.Reset()
		s.Colored("w", -1)
		Expect(out.String()).To(Equal("\x1b[38;5;196mw\x1b[0m"))

		out.Reset()
		s.NoColor = true
		s.Colored("y", 3)
		Expect(out.String()).To(Equal("y"))
	})

	It("disables colors when the output is not a terminal", func() {
		var out bytes.Buffer
		s := NewTerminalSink(&out, termenv.WithProfile(termenv.Ascii))
		Expect(s.NoColor).To(BeTrue())
		s.Colored("z", 9)
		Expect(out.String()).To(Equal("z"))
	})
})
