package audio

import (
	"io"

	"github.com/dhowden/tag"
)

// extensionFromFileType returns the file extension for tag.FileType.
func extensionFromFileType(ft tag.FileType) string {
	switch ft {
	case tag.FLAC:
		return "flac"
	case tag.MP3:
		return "mp3"
	case tag.OGG:
		return "ogg"
	case tag.M4A, tag.ALAC:
		return "m4a"
	case tag.M4B:
		return "m4b"
	case tag.M4P:
		return "m4p"
	case tag.DSF:
		return "dsf"
	default:
		return ""
	}
}

// Identify reads from r and returns the detected audio container extension.
// It returns "" when the stream is not one of the formats tag understands,
// which includes WAV.
func Identify(r io.ReadSeeker) string {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	_, fileType, err := tag.Identify(r)
	if err != nil || fileType == tag.UnknownFileType {
		return ""
	}
	return extensionFromFileType(fileType)
}
