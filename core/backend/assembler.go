package backend

import (
	"github.com/bnosac/audiowhisper/core/schema"
	"github.com/bnosac/audiowhisper/pkg/diarize"
	"github.com/bnosac/audiowhisper/pkg/format"
	"github.com/bnosac/audiowhisper/pkg/whisper"
)

// keepToken reports whether a token belongs in the transcript. Ids at or
// above eot are control tokens. The live printer and the assembler share
// it so both views agree.
func keepToken(id, eot int, printSpecial bool) bool {
	return printSpecial || id < eot
}

type assembleOptions struct {
	eot             int
	printSpecial    bool
	tokenTimestamps bool
	diarize         bool
	stereo          [][]float32
}

// assemble walks the engine results once and builds the segment and token
// tables.
func assemble(r whisper.Results, o assembleOptions) ([]schema.TranscriptionSegment, []schema.TranscriptionToken) {
	n := r.NSegments()
	segments := make([]schema.TranscriptionSegment, 0, n)
	tokens := []schema.TranscriptionToken{}

	for i := range n {
		t0, t1 := r.SegmentT0(i), r.SegmentT1(i)
		segments = append(segments, schema.TranscriptionSegment{
			Index:   i,
			From:    format.ToTimestamp(t0, false),
			To:      format.ToTimestamp(t1, false),
			Text:    r.SegmentText(i),
			Speaker: string(diarize.Label(o.diarize, t0, t1, o.stereo)),
		})

		for j := range r.NTokens(i) {
			id := r.TokenID(i, j)
			if !keepToken(id, o.eot, o.printSpecial) {
				continue
			}
			tok := schema.TranscriptionToken{
				Segment:     i,
				ID:          id,
				Text:        r.TokenText(i, j),
				Probability: r.TokenP(i, j),
			}
			if o.tokenTimestamps {
				td := r.TokenData(i, j)
				tok.From = format.ToTimestamp(td.T0, false)
				tok.To = format.ToTimestamp(td.T1, false)
			}
			tokens = append(tokens, tok)
		}
	}
	return segments, tokens
}
