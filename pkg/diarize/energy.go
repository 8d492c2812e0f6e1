// Package diarize attributes segments to speakers from the relative energy
// of the two channels of a stereo recording. It assumes each speaker is
// mostly isolated on one channel, e.g. one microphone per person.
package diarize

import (
	"github.com/bnosac/audiowhisper/pkg/format"
	"github.com/bnosac/audiowhisper/pkg/sound"
)

type Speaker string

const (
	SpeakerNone    Speaker = ""
	Speaker0       Speaker = "speaker 0"
	Speaker1       Speaker = "speaker 1"
	SpeakerUnknown Speaker = "speaker ?"
)

// Margin is the factor by which one channel must dominate the other.
const Margin = 1.1

// Decide applies the energy rule: a channel wins only when it exceeds the
// other by more than Margin, otherwise the speaker is unknown.
func Decide(energy0, energy1 float64) Speaker {
	switch {
	case energy0 > Margin*energy1:
		return Speaker0
	case energy1 > Margin*energy0:
		return Speaker1
	default:
		return SpeakerUnknown
	}
}

// Energy labels the segment [t0, t1) (centiseconds) by summing |x| over the
// matching sample window of each channel.
func Energy(t0, t1 int64, stereo [][]float32) Speaker {
	if len(stereo) != 2 {
		return SpeakerNone
	}
	n := len(stereo[0])
	if n == 0 {
		return SpeakerUnknown
	}

	is0 := format.TimestampToSample(t0, n)
	is1 := format.TimestampToSample(t1, n)

	e0 := sound.AbsSum(stereo[0], is0, is1)
	e1 := sound.AbsSum(stereo[1], is0, is1)

	return Decide(e0, e1)
}

// Label is Energy gated on diarization being enabled.
func Label(enabled bool, t0, t1 int64, stereo [][]float32) Speaker {
	if !enabled {
		return SpeakerNone
	}
	return Energy(t0, t1, stereo)
}
