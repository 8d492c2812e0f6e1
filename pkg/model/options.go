package model

import (
	"github.com/bnosac/audiowhisper/pkg/whisper"
)

type Options struct {
	backendString string
	modelFile     string
	library       string
	multilingual  *bool
	remote        whisper.RemoteConfig
}

type Option func(*Options)

func WithBackendString(backend string) Option {
	return func(o *Options) {
		o.backendString = backend
	}
}

func WithModelFile(modelFile string) Option {
	return func(o *Options) {
		o.modelFile = modelFile
	}
}

// WithLibrary selects the whisper shared library for native models.
func WithLibrary(library string) Option {
	return func(o *Options) {
		o.library = library
	}
}

func WithMultilingual(m *bool) Option {
	return func(o *Options) {
		o.multilingual = m
	}
}

func WithRemote(rc whisper.RemoteConfig) Option {
	return func(o *Options) {
		o.remote = rc
	}
}

func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
