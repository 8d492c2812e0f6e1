package sound

import "math"

// AbsSum returns the sum of |x| over samples[from:to]. The bounds are clipped
// to the slice, and an empty or inverted window yields 0.
func AbsSum(samples []float32, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(samples) {
		to = len(samples)
	}
	var sum float64
	for i := from; i < to; i++ {
		sum += math.Abs(float64(samples[i]))
	}
	return sum
}

// Duration returns the length in seconds of n samples at the given rate.
func Duration(n, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n) / float64(sampleRate)
}
