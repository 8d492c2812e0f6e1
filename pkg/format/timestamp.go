package format

import "fmt"

// SampleRate is the PCM rate timestamps are mapped onto.
const SampleRate = 16000

// ToTimestamp renders a centisecond timestamp as HH:MM:SS.mmm, or
// HH:MM:SS,mmm when comma is set (SRT style). All arithmetic truncates.
//
//	 500 -> 00:00:05.000
//	6000 -> 00:01:00.000
func ToTimestamp(t int64, comma bool) string {
	msec := t * 10
	hr := msec / (1000 * 60 * 60)
	msec -= hr * (1000 * 60 * 60)
	mn := msec / (1000 * 60)
	msec -= mn * (1000 * 60)
	sec := msec / 1000
	msec -= sec * 1000

	sep := "."
	if comma {
		sep = ","
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hr, mn, sec, sep, msec)
}

// TimestampToSample maps a centisecond timestamp to a sample index, clamped
// to [0, nSamples-1].
func TimestampToSample(t int64, nSamples int) int {
	idx := t * SampleRate / 100
	if idx > int64(nSamples-1) {
		idx = int64(nSamples - 1)
	}
	if idx < 0 {
		idx = 0
	}
	return int(idx)
}
