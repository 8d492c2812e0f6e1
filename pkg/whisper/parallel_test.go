package whisper_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/bnosac/audiowhisper/pkg/whisper"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Window", func() {
	samples := make([]float32, 3*SampleRate)

	It("returns everything without offset or duration", func() {
		w, base := Window(samples, 0, 0)
		Expect(w).To(HaveLen(len(samples)))
		Expect(base).To(BeZero())
	})

	It("applies offset and duration", func() {
		w, base := Window(samples, 500, 1000)
		Expect(w).To(HaveLen(SampleRate))
		Expect(base).To(Equal(int64(50)))
	})

	It("clamps an offset past the end", func() {
		w, base := Window(samples, 10000, 0)
		Expect(w).To(BeEmpty())
		Expect(base).To(Equal(int64(300)))
	})
})

var _ = Describe("SplitChunks", func() {
	It("gives the remainder to the last chunk", func() {
		chunks := SplitChunks(make([]float32, 10), 3)
		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Offset).To(Equal(0))
		Expect(chunks[1].Offset).To(Equal(3))
		Expect(chunks[2].Offset).To(Equal(6))
		Expect(chunks[2].Samples).To(HaveLen(4))
	})

	It("falls back to one chunk for tiny inputs", func() {
		Expect(SplitChunks(make([]float32, 2), 4)).To(HaveLen(1))
		Expect(SplitChunks(make([]float32, 2), 0)).To(HaveLen(1))
	})
})

var _ = Describe("RunParallel", func() {
	var samples []float32

	BeforeEach(func() {
		samples = make([]float32, 4*SampleRate)
	})

	It("publishes chunks in order with shifted times", func() {
		var (
			mu      sync.Mutex
			batches []int
			texts   []string
		)
		cfg := DefaultConfig()
		cfg.NewSegment = func(r Results, nNew int) {
			mu.Lock()
			defer mu.Unlock()
			batches = append(batches, nNew)
			for i := r.NSegments() - nNew; i < r.NSegments(); i++ {
				texts = append(texts, r.SegmentText(i))
			}
		}

		store := &Store{}
		err := RunParallel(context.Background(), samples, 4, 0, cfg, store, func(_ context.Context, c Chunk) ([]Segment, error) {
			// later chunks finish first
			time.Sleep(time.Duration(4-c.Index) * 10 * time.Millisecond)
			return []Segment{{T0: 0, T1: 50, Text: string(rune('a' + c.Index)), Tokens: []Token{{ID: 1, T0: 10, T1: 20}}}}, nil
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(texts).To(Equal([]string{"a", "b", "c", "d"}))
		Expect(batches).To(Equal([]int{1, 1, 1, 1}))
		Expect(store.NSegments()).To(Equal(4))
		for i := range 4 {
			Expect(store.SegmentT0(i)).To(Equal(int64(i * 100)))
			Expect(store.SegmentT1(i)).To(Equal(int64(i*100 + 50)))
			Expect(store.TokenData(i, 0).T0).To(Equal(int64(i*100 + 10)))
		}
	})

	It("adds the window offset", func() {
		store := &Store{}
		err := RunParallel(context.Background(), samples, 1, 250, DefaultConfig(), store, func(_ context.Context, c Chunk) ([]Segment, error) {
			return []Segment{{T0: 0, T1: 10}}, nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(store.SegmentT0(0)).To(Equal(int64(250)))
	})

	It("aborts when the encoder-begin hook refuses", func() {
		cfg := DefaultConfig()
		cfg.EncoderBegin = func() bool { return false }
		called := false
		err := RunParallel(context.Background(), samples, 2, 0, cfg, &Store{}, func(_ context.Context, c Chunk) ([]Segment, error) {
			called = true
			return nil, nil
		})
		Expect(err).To(MatchError(ErrAborted))
		Expect(called).To(BeFalse())
	})

	It("returns the first worker error", func() {
		boom := errors.New("boom")
		err := RunParallel(context.Background(), samples, 2, 0, DefaultConfig(), &Store{}, func(_ context.Context, c Chunk) ([]Segment, error) {
			if c.Index == 1 {
				return nil, boom
			}
			return nil, nil
		})
		Expect(err).To(MatchError(boom))
	})

	It("reports progress up to 100", func() {
		var (
			mu   sync.Mutex
			last int
		)
		cfg := DefaultConfig()
		cfg.Progress = func(p int) {
			mu.Lock()
			defer mu.Unlock()
			if p > last {
				last = p
			}
		}
		Expect(RunParallel(context.Background(), samples, 3, 0, cfg, &Store{}, func(context.Context, Chunk) ([]Segment, error) {
			return nil, nil
		})).To(Succeed())
		Expect(last).To(Equal(100))
	})
})

var _ = Describe("Languages", func() {
	It("resolves codes and names", func() {
		Expect(LanguageID("en")).To(Equal(0))
		Expect(LanguageID("German")).To(Equal(2))
		Expect(LanguageCode(2)).To(Equal("de"))
		Expect(LanguageCode(1000)).To(BeEmpty())
	})

	It("rejects unknown languages and auto", func() {
		Expect(LanguageID("klingon")).To(Equal(-1))
		Expect(LanguageID(AutoLanguage)).To(Equal(-1))
	})

	It("lists every code", func() {
		Expect(Languages()).To(HaveLen(99))
		Expect(Languages()).To(ContainElement("su"))
	})
})
