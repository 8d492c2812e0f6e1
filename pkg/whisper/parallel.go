package whisper

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Chunk is a contiguous slice of the input handed to one worker. Offset is
// the index of its first sample in the full buffer.
type Chunk struct {
	Index   int
	Offset  int
	Samples []float32
}

// ChunkFunc decodes one chunk and returns its segments with times relative
// to the chunk start.
type ChunkFunc func(ctx context.Context, chunk Chunk) ([]Segment, error)

// Window applies an offset/duration request (milliseconds) to samples. It
// returns the selected samples and the offset of the window in centiseconds.
func Window(samples []float32, offsetMS, durationMS int) ([]float32, int64) {
	from := offsetMS * SampleRate / 1000
	if from < 0 {
		from = 0
	}
	if from > len(samples) {
		from = len(samples)
	}
	to := len(samples)
	if durationMS > 0 {
		if end := from + durationMS*SampleRate/1000; end < to {
			to = end
		}
	}
	return samples[from:to], int64(from) * 100 / SampleRate
}

// SplitChunks cuts samples into n contiguous chunks; the last one takes the
// remainder. n is reduced to 1 when there are fewer samples than chunks.
func SplitChunks(samples []float32, n int) []Chunk {
	if n < 1 || len(samples) < n {
		n = 1
	}
	per := len(samples) / n
	chunks := make([]Chunk, n)
	for i := range chunks {
		from := i * per
		to := from + per
		if i == n-1 {
			to = len(samples)
		}
		chunks[i] = Chunk{Index: i, Offset: from, Samples: samples[from:to]}
	}
	return chunks
}

// RunParallel decodes samples on up to processors workers and appends the
// results to store. Each worker owns its chunk's segments; batches are
// published to the store, and to cfg.NewSegment, strictly in chunk order
// as soon as every earlier chunk has finished. cfg.EncoderBegin is
// consulted before each chunk is started. Chunk times are shifted by the
// chunk offset plus baseCs.
func RunParallel(ctx context.Context, samples []float32, processors int, baseCs int64, cfg Config, store *Store, fn ChunkFunc) error {
	chunks := SplitChunks(samples, processors)

	var (
		mu        sync.Mutex
		results   = make([][]Segment, len(chunks))
		done      = make([]bool, len(chunks))
		next      int
		completed int
	)

	publish := func(i int, segs []Segment) {
		mu.Lock()
		defer mu.Unlock()

		results[i] = segs
		done[i] = true
		completed++

		for next < len(chunks) && done[next] {
			batch := results[next]
			results[next] = nil
			next++
			if len(batch) == 0 {
				continue
			}
			store.Append(batch...)
			if cfg.NewSegment != nil {
				cfg.NewSegment(store, len(batch))
			}
		}

		if cfg.Progress != nil {
			cfg.Progress(100 * completed / len(chunks))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range chunks {
		g.Go(func() error {
			if cfg.EncoderBegin != nil && !cfg.EncoderBegin() {
				return ErrAborted
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			segs, err := fn(gctx, c)
			if err != nil {
				return err
			}

			shift := baseCs + int64(c.Offset)*100/SampleRate
			for k := range segs {
				segs[k] = segs[k].Shift(shift)
			}
			publish(c.Index, segs)
			return nil
		})
	}

	return g.Wait()
}
