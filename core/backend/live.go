package backend

import (
	"fmt"
	"math"

	"github.com/bnosac/audiowhisper/pkg/diarize"
	"github.com/bnosac/audiowhisper/pkg/format"
	"github.com/bnosac/audiowhisper/pkg/whisper"
)

// ColorBucket maps a token probability to one of n color bins. The cubic
// curve pushes mid-range confidence towards the low end.
func ColorBucket(p float32, n int) int {
	b := int(math.Floor(math.Pow(float64(p), 3) * float64(n)))
	return max(0, min(b, n))
}

// livePrinter renders newly decoded segments to a Sink while inference is
// still running.
type livePrinter struct {
	sink         Sink
	eot          int
	printSpecial bool
	printColors  bool
	timestamps   bool
	diarize      bool
	stereo       [][]float32
}

func (lp *livePrinter) onNewSegment(r whisper.Results, nNew int) {
	n := r.NSegments()
	s0 := n - nNew
	if s0 == 0 {
		lp.sink.Text("\n")
	}

	for i := s0; i < n; i++ {
		speaker := ""
		if lp.timestamps {
			t0, t1 := r.SegmentT0(i), r.SegmentT1(i)
			if s := diarize.Label(lp.diarize, t0, t1, lp.stereo); s != diarize.SpeakerNone {
				speaker = fmt.Sprintf("(%s)", s)
			}
			lp.sink.Text(fmt.Sprintf("[%s --> %s]  %s", format.ToTimestamp(t0, false), format.ToTimestamp(t1, false), speaker))
		}

		if lp.printColors {
			for j := range r.NTokens(i) {
				if !keepToken(r.TokenID(i, j), lp.eot, lp.printSpecial) {
					continue
				}
				lp.sink.Colored(r.TokenText(i, j), ColorBucket(r.TokenP(i, j), len(Palette)))
			}
		} else {
			lp.sink.Text(r.SegmentText(i))
		}

		if lp.timestamps {
			lp.sink.Text("\n")
		}
	}
}
