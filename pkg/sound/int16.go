package sound

// Scale factors for signed 16-bit PCM. A stereo frame is downmixed by summing
// both channels and dividing by twice the mono scale.
const (
	Int16Scale  = 32768.0
	StereoScale = 65536.0
)

// Int16ToFloat32 normalizes interleaved 16-bit samples (as decoded into ints)
// to float32 in [-1, 1].
func Int16ToFloat32(input []int) []float32 {
	output := make([]float32, len(input))
	for i, v := range input {
		output[i] = float32(v) / Int16Scale
	}
	return output
}

// DownmixStereo folds interleaved L/R 16-bit frames into a single mono
// float32 channel. Trailing half frames are ignored.
func DownmixStereo(input []int) []float32 {
	n := len(input) / 2
	output := make([]float32, n)
	for i := 0; i < n; i++ {
		output[i] = float32(input[2*i]+input[2*i+1]) / StereoScale
	}
	return output
}

// SplitStereo deinterleaves L/R 16-bit frames into two independently
// normalized float32 channels of equal length.
func SplitStereo(input []int) [2][]float32 {
	n := len(input) / 2
	out := [2][]float32{make([]float32, n), make([]float32, n)}
	for i := 0; i < n; i++ {
		out[0][i] = float32(input[2*i]) / Int16Scale
		out[1][i] = float32(input[2*i+1]) / Int16Scale
	}
	return out
}

// Float32ToInt16 converts normalized samples back to 16-bit PCM, clipping
// anything outside [-1, 1].
func Float32ToInt16(input []float32) []int {
	output := make([]int, len(input))
	for i, s := range input {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		v := int(s * Int16Scale)
		if v > 32767 {
			v = 32767
		}
		output[i] = v
	}
	return output
}
