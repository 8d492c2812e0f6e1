package backend

import (
	"errors"
	"fmt"
	"os"

	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/pkg/model"
	"github.com/bnosac/audiowhisper/pkg/whisper"
	"github.com/bnosac/audiowhisper/pkg/xsysinfo"
)

var ErrModelNotFound = errors.New("model not found")

// ModelOptions translates a model configuration into loader options.
func ModelOptions(c *config.ModelConfig, appConfig *config.ApplicationConfig) []model.Option {
	opts := []model.Option{
		model.WithBackendString(c.Backend),
		model.WithMultilingual(c.Multilingual),
	}

	library := c.Library
	if library == "" {
		library = appConfig.LibPath
	}

	switch c.Backend {
	case config.BackendWhisper:
		opts = append(opts,
			model.WithModelFile(c.ModelFile(appConfig.ModelPath)),
			model.WithLibrary(library),
		)
	case config.BackendOpenAI:
		opts = append(opts, model.WithRemote(whisper.RemoteConfig{
			BaseURL:      c.Remote.BaseURL,
			APIKey:       c.Remote.APIKey,
			Model:        c.Remote.Model,
			Multilingual: c.Multilingual,
		}))
	}
	return opts
}

// LoadEngine returns the engine for c, loading it through ml on first use.
func LoadEngine(ml *model.ModelLoader, c *config.ModelConfig, appConfig *config.ApplicationConfig) (whisper.Engine, error) {
	if c.Backend == config.BackendWhisper && ml.CheckIsLoaded(c.Name) == nil {
		fi, err := os.Stat(c.ModelFile(appConfig.ModelPath))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, c.Name)
		}
		if ram := xsysinfo.SystemRAM(); !xsysinfo.ModelFits(uint64(fi.Size()), ram.Available) {
			xlog.Warn("model may not fit in the available memory", "model", c.Name, "size", fi.Size(), "available", ram.Available)
		}
	}

	engine, err := ml.Load(c.Name, ModelOptions(c, appConfig)...)
	if err != nil {
		return nil, fmt.Errorf("could not load model %s: %w", c.Name, err)
	}
	return engine, nil
}
