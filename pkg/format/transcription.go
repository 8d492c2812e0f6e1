package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bnosac/audiowhisper/core/schema"
)

type ResponseFormat string

const (
	ResponseFormatJSON   ResponseFormat = "json"
	ResponseFormatText   ResponseFormat = "text"
	ResponseFormatSrt    ResponseFormat = "srt"
	ResponseFormatVtt    ResponseFormat = "vtt"
	ResponseFormatLrc    ResponseFormat = "lrc"
	ResponseFormatCSV    ResponseFormat = "csv"
	ResponseFormatTokens ResponseFormat = "tokens"
)

// ContentType returns the MIME type used when serving a rendered transcript.
func (f ResponseFormat) ContentType() string {
	switch f {
	case ResponseFormatJSON, "":
		return "application/json"
	case ResponseFormatVtt:
		return "text/vtt"
	case ResponseFormatCSV, ResponseFormatTokens:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseResponseFormat validates a user supplied format name. An empty name
// selects JSON.
func ParseResponseFormat(s string) (ResponseFormat, error) {
	switch f := ResponseFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ResponseFormatJSON, nil
	case ResponseFormatJSON, ResponseFormatText, ResponseFormatSrt, ResponseFormatVtt,
		ResponseFormatLrc, ResponseFormatCSV, ResponseFormatTokens:
		return f, nil
	default:
		return "", fmt.Errorf("unknown response format %q", s)
	}
}

// TranscriptionResponse renders tr in the requested format.
func TranscriptionResponse(tr *schema.TranscriptionResult, resFmt ResponseFormat) (string, error) {
	switch resFmt {
	case ResponseFormatJSON, "":
		b, err := json.MarshalIndent(tr, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	case ResponseFormatCSV:
		return segmentsCSV(tr)
	case ResponseFormatTokens:
		return tokensCSV(tr)
	}

	var out strings.Builder
	switch resFmt {
	case ResponseFormatLrc:
		out.WriteString("[by:audiowhisper]\n[re:audiowhisper]\n")
	case ResponseFormatVtt:
		out.WriteString("WEBVTT\n")
	}

	for i, s := range tr.Segments {
		text := strings.TrimSpace(s.Text)
		if s.Speaker != "" {
			text = "(" + s.Speaker + ") " + text
		}
		switch resFmt {
		case ResponseFormatLrc:
			fmt.Fprintf(&out, "[%s] %s\n", lrcStamp(s.From), text)
		case ResponseFormatSrt:
			fmt.Fprintf(&out, "%d\n%s --> %s\n%s\n\n", i+1, commaStamp(s.From), commaStamp(s.To), text)
		case ResponseFormatVtt:
			fmt.Fprintf(&out, "\n%s --> %s\n%s\n", s.From, s.To, text)
		default:
			fmt.Fprintf(&out, "%s\n", text)
		}
	}

	return out.String(), nil
}

// commaStamp turns HH:MM:SS.mmm into the SRT flavour HH:MM:SS,mmm.
func commaStamp(ts string) string {
	return strings.Replace(ts, ".", ",", 1)
}

// lrcStamp turns HH:MM:SS.mmm into LRC's MM:SS.cc, folding hours into minutes.
func lrcStamp(ts string) string {
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%d:%d:%d.%d", &h, &m, &s, &ms); err != nil {
		return ts
	}
	return fmt.Sprintf("%02d:%02d.%02d", h*60+m, s, ms/10)
}

func segmentsCSV(tr *schema.TranscriptionResult) (string, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	header := []string{"segment", "from", "to", "text"}
	withSpeaker := false
	for _, s := range tr.Segments {
		if s.Speaker != "" {
			withSpeaker = true
			break
		}
	}
	if withSpeaker {
		header = append(header, "speaker")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, s := range tr.Segments {
		row := []string{strconv.Itoa(s.Index), s.From, s.To, s.Text}
		if withSpeaker {
			row = append(row, s.Speaker)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}

func tokensCSV(tr *schema.TranscriptionResult) (string, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	header := []string{"segment", "token", "token_prob"}
	if tr.Params.TokenTimestamps {
		header = append(header, "token_from", "token_to")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, t := range tr.Tokens {
		row := []string{strconv.Itoa(t.Segment), t.Text, strconv.FormatFloat(float64(t.Probability), 'f', 6, 32)}
		if tr.Params.TokenTimestamps {
			row = append(row, t.From, t.To)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return b.String(), w.Error()
}
