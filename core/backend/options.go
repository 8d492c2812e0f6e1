package backend

import (
	"context"

	"github.com/bnosac/audiowhisper/core/services"
)

type TranscriptionOption func(*transcriptionOptions)

type transcriptionOptions struct {
	sink      Sink
	metrics   *services.TranscriptionMetrics
	progress  func(int)
	modelName string
}

func newTranscriptionOptions(opts ...TranscriptionOption) *transcriptionOptions {
	o := &transcriptionOptions{sink: NopSink{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithSink routes live segment output to s.
func WithSink(s Sink) TranscriptionOption {
	return func(o *transcriptionOptions) {
		if s != nil {
			o.sink = s
		}
	}
}

func WithMetrics(m *services.TranscriptionMetrics) TranscriptionOption {
	return func(o *transcriptionOptions) {
		o.metrics = m
	}
}

// WithProgress is called with the completion percentage as chunks finish.
func WithProgress(fn func(int)) TranscriptionOption {
	return func(o *transcriptionOptions) {
		o.progress = fn
	}
}

// WithModelName labels metrics and logs.
func WithModelName(name string) TranscriptionOption {
	return func(o *transcriptionOptions) {
		o.modelName = name
	}
}

func (o *transcriptionOptions) observeFailure(ctx context.Context) {
	if o.metrics != nil {
		o.metrics.ObserveFailure(ctx, o.modelName)
	}
}
