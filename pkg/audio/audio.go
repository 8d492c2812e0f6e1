package audio

import (
	"encoding/binary"
	"io"

	"github.com/bnosac/audiowhisper/pkg/sound"
)

// WAVHeader represents the canonical 44 byte header of a PCM WAV file.
type WAVHeader struct {
	// RIFF Chunk (12 bytes)
	ChunkID   [4]byte
	ChunkSize uint32
	Format    [4]byte

	// fmt Subchunk (16 bytes)
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16

	// data Subchunk (8 bytes)
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// NewWAVHeader returns a 16-bit PCM header for pcmLen bytes of interleaved
// data with the given channel count and sample rate.
func NewWAVHeader(pcmLen uint32, sampleRate uint32, channels uint16) WAVHeader {
	blockAlign := channels * 2
	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16, // PCM = 16 bytes
		AudioFormat:   1,  // PCM
		NumChannels:   channels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: pcmLen,
	}

	header.ChunkSize = 36 + header.Subchunk2Size

	return header
}

func (h *WAVHeader) Write(writer io.Writer) error {
	return binary.Write(writer, binary.LittleEndian, h)
}

// EncodeWAV writes mono float samples as a 16 kHz 16-bit PCM WAV stream.
func EncodeWAV(w io.Writer, samples []float32) error {
	pcm := sound.Float32ToInt16(samples)
	hdr := NewWAVHeader(uint32(len(pcm)*2), SampleRate, 1)
	if err := hdr.Write(w); err != nil {
		return err
	}
	data := make([]int16, len(pcm))
	for i, v := range pcm {
		data[i] = int16(v)
	}
	return binary.Write(w, binary.LittleEndian, data)
}
