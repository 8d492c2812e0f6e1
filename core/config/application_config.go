package config

import (
	"context"
	"time"
)

type ApplicationConfig struct {
	Context       context.Context
	ModelPath     string
	LibPath       string
	Address       string
	Threads       int
	Processors    int
	UploadLimitMB int
	UploadDir     string

	ApiKeys          []string
	CORS             bool
	CORSAllowOrigins string
	DisableMetrics   bool
	OpaqueErrors     bool

	WatchModelConfigs bool
	PollInterval      time.Duration
}

type AppOption func(*ApplicationConfig)

func NewApplicationConfig(o ...AppOption) *ApplicationConfig {
	opt := &ApplicationConfig{
		Context:       context.Background(),
		Address:       ":8080",
		UploadLimitMB: 15,
		Processors:    1,
	}
	for _, oo := range o {
		oo(opt)
	}
	return opt
}

func WithContext(ctx context.Context) AppOption {
	return func(o *ApplicationConfig) {
		o.Context = ctx
	}
}

func WithModelPath(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.ModelPath = path
	}
}

// WithLibPath sets the shared library used by the native whisper backend.
func WithLibPath(path string) AppOption {
	return func(o *ApplicationConfig) {
		o.LibPath = path
	}
}

func WithAddress(addr string) AppOption {
	return func(o *ApplicationConfig) {
		o.Address = addr
	}
}

func WithThreads(threads int) AppOption {
	return func(o *ApplicationConfig) {
		if threads == 0 {
			return
		}
		o.Threads = threads
	}
}

func WithProcessors(processors int) AppOption {
	return func(o *ApplicationConfig) {
		if processors < 1 {
			return
		}
		o.Processors = processors
	}
}

func WithUploadLimitMB(limit int) AppOption {
	return func(o *ApplicationConfig) {
		o.UploadLimitMB = limit
	}
}

func WithUploadDir(dir string) AppOption {
	return func(o *ApplicationConfig) {
		o.UploadDir = dir
	}
}

func WithApiKeys(apiKeys []string) AppOption {
	return func(o *ApplicationConfig) {
		o.ApiKeys = apiKeys
	}
}

func WithCors(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.CORS = b
	}
}

func WithCorsAllowOrigins(b string) AppOption {
	return func(o *ApplicationConfig) {
		o.CORSAllowOrigins = b
	}
}

func WithDisableMetrics(b bool) AppOption {
	return func(o *ApplicationConfig) {
		o.DisableMetrics = b
	}
}

func WithOpaqueErrors(opaque bool) AppOption {
	return func(o *ApplicationConfig) {
		o.OpaqueErrors = opaque
	}
}

// WithWatchModelConfigs reloads model YAML files when they change on disk.
// A positive poll interval rereads the directory periodically instead of
// relying on filesystem events.
func WithWatchModelConfigs(watch bool, poll time.Duration) AppOption {
	return func(o *ApplicationConfig) {
		o.WatchModelConfigs = watch
		o.PollInterval = poll
	}
}

// ToConfigLoaderOptions returns the loader defaults derived from the app.
func (o *ApplicationConfig) ToConfigLoaderOptions() []ConfigLoaderOption {
	return []ConfigLoaderOption{
		LoadOptionThreads(o.Threads),
		LoadOptionProcessors(o.Processors),
		LoadOptionLibrary(o.LibPath),
		ModelPath(o.ModelPath),
	}
}
