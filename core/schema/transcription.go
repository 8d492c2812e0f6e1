package schema

import "strings"

// TranscriptionRequest carries the caller-facing parameters of a single
// transcription. Durations and offsets are in milliseconds.
type TranscriptionRequest struct {
	Model string `json:"model,omitempty" yaml:"model,omitempty" form:"model"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`

	Language        string `json:"language,omitempty" yaml:"language,omitempty" form:"language"`
	Translate       bool   `json:"translate,omitempty" yaml:"translate,omitempty" form:"translate"`
	TokenTimestamps bool   `json:"token_timestamps,omitempty" yaml:"token_timestamps,omitempty" form:"token_timestamps"`
	PrintSpecial    bool   `json:"print_special,omitempty" yaml:"print_special,omitempty" form:"print_special"`
	Duration        int    `json:"duration,omitempty" yaml:"duration,omitempty" form:"duration"`
	Offset          int    `json:"offset,omitempty" yaml:"offset,omitempty" form:"offset"`
	Trace           bool   `json:"trace,omitempty" yaml:"trace,omitempty" form:"trace"`
	Threads         int    `json:"threads,omitempty" yaml:"threads,omitempty" form:"threads"`
	Processors      int    `json:"processors,omitempty" yaml:"processors,omitempty" form:"processors"`

	Diarize       bool    `json:"diarize,omitempty" yaml:"diarize,omitempty" form:"diarize"`
	NoTimestamps  bool    `json:"no_timestamps,omitempty" yaml:"no_timestamps,omitempty" form:"no_timestamps"`
	PrintColors   bool    `json:"print_colors,omitempty" yaml:"print_colors,omitempty" form:"print_colors"`
	MaxContext    *int    `json:"max_context,omitempty" yaml:"max_context,omitempty" form:"-"`
	MaxLen        int     `json:"max_len,omitempty" yaml:"max_len,omitempty" form:"max_len"`
	WordThreshold float32 `json:"word_threshold,omitempty" yaml:"word_threshold,omitempty" form:"word_threshold"`
	SpeedUp       bool    `json:"speed_up,omitempty" yaml:"speed_up,omitempty" form:"speed_up"`

	ResponseFormat string `json:"response_format,omitempty" yaml:"response_format,omitempty" form:"response_format"`
}

// TranscriptionSegment is one row of the segment table. From and To are
// formatted HH:MM:SS.mmm timestamps; Speaker is only set when diarizing.
type TranscriptionSegment struct {
	Index   int    `json:"segment"`
	From    string `json:"from"`
	To      string `json:"to"`
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

// TranscriptionToken is one row of the token table. From and To are only
// set when token timestamps were requested.
type TranscriptionToken struct {
	Segment     int     `json:"segment"`
	ID          int     `json:"token_id"`
	Text        string  `json:"token"`
	Probability float32 `json:"token_prob"`
	From        string  `json:"token_from,omitempty"`
	To          string  `json:"token_to,omitempty"`
}

// TranscriptionParams echoes the effective request parameters.
type TranscriptionParams struct {
	Audio           string  `json:"audio"`
	Language        string  `json:"language"`
	Offset          int     `json:"offset"`
	Duration        int     `json:"duration"`
	Translate       bool    `json:"translate"`
	TokenTimestamps bool    `json:"token_timestamps"`
	WordThreshold   float32 `json:"word_threshold"`
}

type TranscriptionResult struct {
	ID        string                 `json:"id"`
	NSegments int                    `json:"n_segments"`
	Segments  []TranscriptionSegment `json:"data"`
	Tokens    []TranscriptionToken   `json:"tokens"`
	Params    TranscriptionParams    `json:"params"`
	Warnings  []string               `json:"warnings,omitempty"`
}

// Text joins all segment texts in order.
func (tr *TranscriptionResult) Text() string {
	var b strings.Builder
	for _, s := range tr.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
