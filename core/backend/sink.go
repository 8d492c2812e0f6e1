package backend

import (
	"io"
	"sync"

	"github.com/muesli/termenv"
)

// Sink receives live display output. Colored text carries the confidence
// bucket computed by ColorBucket; sinks that do not render colors can
// ignore it.
type Sink interface {
	Text(s string)
	Colored(s string, bucket int)
}

// Palette is the terminal color scale from low to high confidence.
var Palette = []termenv.ANSI256Color{196, 202, 208, 214, 220, 226, 190, 154, 118, 82}

// TerminalSink writes to an io.Writer, coloring text from Palette in the
// color profile the output supports.
type TerminalSink struct {
	mu      sync.Mutex
	out     *termenv.Output
	NoColor bool
}

// NewTerminalSink detects the color profile of w. Colors start disabled
// when w is not a terminal.
func NewTerminalSink(w io.Writer, opts ...termenv.OutputOption) *TerminalSink {
	out := termenv.NewOutput(w, opts...)
	return &TerminalSink{out: out, NoColor: out.Profile == termenv.Ascii}
}

func (t *TerminalSink) Text(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.WriteString(s)
}

func (t *TerminalSink) Colored(s string, bucket int) {
	if t.NoColor {
		t.Text(s)
		return
	}
	bucket = max(0, min(bucket, len(Palette)-1))
	styled := t.out.String(s).Foreground(t.out.Convert(Palette[bucket])).String()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.WriteString(styled)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Text(string) {}
func (NopSink) Colored(string, int) {}
