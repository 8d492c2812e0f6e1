package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/pkg/sound"
)

// SampleRate is the only rate accepted by the recognition engines.
const SampleRate = 16000

// WAV format tags accepted as integer PCM.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	ErrInvalidWAV        = errors.New("failed to open the file as WAV file")
	ErrChannels          = errors.New("WAV file must be mono or stereo")
	ErrDiarizeStereo     = errors.New("WAV file must be stereo for diarization")
	ErrDiarizeTimestamps = errors.New("diarization requires timestamps to be enabled")
	ErrSampleRate        = errors.New("WAV file must be 16 kHz")
	ErrBitDepth          = errors.New("WAV file must be 16 bit PCM")
)

// LoadOptions controls which buffers are produced and which checks apply.
type LoadOptions struct {
	Diarize      bool
	NoTimestamps bool
}

// Buffer holds decoded audio. Mono is always set; Stereo holds the two
// separately normalized channels and is only set when diarization was
// requested.
type Buffer struct {
	Mono     []float32
	Stereo   [][]float32
	Channels int
}

// HasStereo reports whether both diarization channels are available.
func (b *Buffer) HasStereo() bool {
	return b != nil && len(b.Stereo) == 2
}

// Seconds returns the mono duration in seconds.
func (b *Buffer) Seconds() float64 {
	return sound.Duration(len(b.Mono), SampleRate)
}

// Load opens path and decodes it with Decode.
func Load(path string, opts LoadOptions) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidWAV, path, err)
	}
	defer f.Close()

	return Decode(f, path, opts)
}

// Decode validates and converts a WAV stream. Validation is ordered:
// container, channel count, diarization requirements, sample rate, bit depth.
// name is only used in error messages.
func Decode(r io.ReadSeeker, name string, opts LoadOptions) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if kind := Identify(r); kind != "" {
			return nil, fmt.Errorf("%w: %s (looks like %s)", ErrInvalidWAV, name, kind)
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, name)
	}

	channels := int(dec.NumChans)
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %s has %d channels", ErrChannels, name, channels)
	}

	if opts.Diarize {
		if channels != 2 {
			return nil, fmt.Errorf("%w: %s", ErrDiarizeStereo, name)
		}
		if opts.NoTimestamps {
			return nil, fmt.Errorf("%w: %s", ErrDiarizeTimestamps, name)
		}
	}

	if dec.SampleRate != SampleRate {
		return nil, fmt.Errorf("%w: %s is %d Hz", ErrSampleRate, name, dec.SampleRate)
	}

	if dec.BitDepth != 16 || (dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible) {
		return nil, fmt.Errorf("%w: %s is %d bit (format %d)", ErrBitDepth, name, dec.BitDepth, dec.WavAudioFormat)
	}

	// Header probing leaves the reader past the fmt chunk; start over for the
	// PCM pass.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidWAV, name, err)
	}
	pcm, err := wav.NewDecoder(r).FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidWAV, name, err)
	}

	buf := &Buffer{Channels: channels}
	if channels == 1 {
		buf.Mono = sound.Int16ToFloat32(pcm.Data)
	} else {
		buf.Mono = sound.DownmixStereo(pcm.Data)
		if opts.Diarize {
			s := sound.SplitStereo(pcm.Data)
			buf.Stereo = [][]float32{s[0], s[1]}
		}
	}

	xlog.Debug("decoded WAV", "file", name, "channels", channels, "frames", len(buf.Mono))

	return buf, nil
}
