package application

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/core/backend"
	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/core/services"
	"github.com/bnosac/audiowhisper/internal"
	"github.com/bnosac/audiowhisper/pkg/model"
	"github.com/bnosac/audiowhisper/pkg/whisper"
	"github.com/bnosac/audiowhisper/pkg/xsysinfo"
)

// Application ties together the loaders and services shared by the HTTP
// API and the CLI.
type Application struct {
	modelConfigLoader *config.ModelConfigLoader
	modelLoader       *model.ModelLoader
	applicationConfig *config.ApplicationConfig
	metrics           *services.TranscriptionMetrics
}

func newApplication(appConfig *config.ApplicationConfig) *Application {
	return &Application{
		modelConfigLoader: config.NewModelConfigLoader(appConfig.ModelPath),
		modelLoader:       model.NewModelLoader(appConfig.ModelPath),
		applicationConfig: appConfig,
	}
}

func New(opts ...config.AppOption) (*Application, error) {
	options := config.NewApplicationConfig(opts...)
	application := newApplication(options)

	xlog.Info("Starting audiowhisper", "threads", options.Threads, "processors", options.Processors, "modelsPath", options.ModelPath)
	xlog.Info("audiowhisper version", "version", internal.PrintableVersion())

	if caps, err := xsysinfo.CPUCapabilities(); err == nil {
		xlog.Debug("CPU capabilities", "capabilities", caps)
	}

	if options.ModelPath == "" {
		return nil, fmt.Errorf("models path cannot be empty")
	}
	if err := os.MkdirAll(options.ModelPath, 0750); err != nil {
		return nil, fmt.Errorf("unable to create ModelPath: %q", err)
	}
	if options.UploadDir != "" {
		if err := os.MkdirAll(options.UploadDir, 0750); err != nil {
			return nil, fmt.Errorf("unable to create UploadDir: %q", err)
		}
	}

	loaderOpts := options.ToConfigLoaderOptions()
	if err := application.modelConfigLoader.LoadModelConfigsFromPath(options.ModelPath, loaderOpts...); err != nil {
		xlog.Error("error loading config files", "error", err)
	}
	for _, c := range application.modelConfigLoader.GetAllModelsConfigs() {
		xlog.Debug("Model", "name", c.Name, "backend", c.Backend, "model", c.Parameters.Model)
	}

	if options.WatchModelConfigs {
		if err := application.modelConfigLoader.Watch(options.Context, options.ModelPath, options.PollInterval, loaderOpts...); err != nil {
			xlog.Error("error establishing model config watcher", "error", err)
		}
	}

	if !options.DisableMetrics {
		m, err := services.NewTranscriptionMetrics()
		if err != nil {
			return nil, err
		}
		application.metrics = m
	}

	return application, nil
}

func (a *Application) ModelConfigLoader() *config.ModelConfigLoader {
	return a.modelConfigLoader
}

func (a *Application) ModelLoader() *model.ModelLoader {
	return a.modelLoader
}

func (a *Application) ApplicationConfig() *config.ApplicationConfig {
	return a.applicationConfig
}

// Metrics is nil when metrics are disabled.
func (a *Application) Metrics() *services.TranscriptionMetrics {
	return a.metrics
}

// Engine resolves a model name to its configuration and loaded engine.
func (a *Application) Engine(name string) (whisper.Engine, *config.ModelConfig, error) {
	c, err := a.modelConfigLoader.LoadModelConfigFileByNameDefaultOptions(name, a.applicationConfig)
	if err != nil {
		return nil, nil, err
	}
	engine, err := backend.LoadEngine(a.modelLoader, c, a.applicationConfig)
	if err != nil {
		return nil, nil, err
	}
	return engine, c, nil
}

func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.modelLoader.StopAll(); err != nil {
		errs = append(errs, err)
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
