package model

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/pkg/whisper"
	"github.com/bnosac/audiowhisper/pkg/xsync"
)

var ErrUnknownBackend = errors.New("unknown backend")

// ModelLoader keeps loaded engines around so consecutive requests for the
// same model reuse them.
type ModelLoader struct {
	ModelPath string

	models *xsync.SyncedMap[string, whisper.Engine]

	mu           sync.RWMutex
	initializers map[string]Initializer
}

func NewModelLoader(modelPath string) *ModelLoader {
	return &ModelLoader{
		ModelPath: modelPath,
		models:    xsync.NewSyncedMap[string, whisper.Engine](),
		initializers: map[string]Initializer{
			WhisperBackend: whisperInitializer,
			OpenAIBackend:  openAIInitializer,
		},
	}
}

// RegisterBackend makes a backend name loadable.
func (ml *ModelLoader) RegisterBackend(name string, init Initializer) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.initializers[name] = init
}

var knownFilesToSkip = []string{
	"MODEL_CARD",
	"README",
	"README.md",
}

var knownModelsNameSuffixToSkip = []string{
	".keep",
	".yaml",
	".yml",
	".json",
	".txt",
	".md",
	".DS_Store",
	".partial",
}

// ListFilesInModelPath lists the candidate model files of the models
// directory.
func (ml *ModelLoader) ListFilesInModelPath() ([]string, error) {
	files, err := os.ReadDir(ml.ModelPath)
	if err != nil {
		return []string{}, err
	}

	models := []string{}
FILE:
	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}
		for _, skip := range knownFilesToSkip {
			if strings.EqualFold(file.Name(), skip) {
				continue FILE
			}
		}
		for _, skip := range knownModelsNameSuffixToSkip {
			if strings.HasSuffix(file.Name(), skip) {
				continue FILE
			}
		}
		models = append(models, file.Name())
	}

	return models, nil
}

// Load returns the engine registered under modelID, initializing it from
// opts on first use.
func (ml *ModelLoader) Load(modelID string, opts ...Option) (whisper.Engine, error) {
	return ml.models.GetOrCreate(modelID, func() (whisper.Engine, error) {
		o := NewOptions(opts...)

		ml.mu.RLock()
		init, ok := ml.initializers[o.backendString]
		ml.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, o.backendString)
		}

		xlog.Info("Loading model", "model", modelID, "backend", o.backendString)
		engine, err := init(o)
		if err != nil {
			return nil, fmt.Errorf("failed to load model %s: %w", modelID, err)
		}
		if engine == nil {
			return nil, fmt.Errorf("loader didn't return a model")
		}
		return engine, nil
	})
}

func (ml *ModelLoader) CheckIsLoaded(modelID string) whisper.Engine {
	return ml.models.Get(modelID)
}

func (ml *ModelLoader) LoadedModels() []string {
	return ml.models.Keys()
}

func (ml *ModelLoader) ShutdownModel(modelID string) error {
	engine, ok := ml.models.Pop(modelID)
	if !ok {
		return fmt.Errorf("model %s not found", modelID)
	}
	xlog.Debug("Shutting down model", "model", modelID)
	return engine.Close()
}

func (ml *ModelLoader) StopAll() error {
	var errs []error
	for _, id := range ml.models.Keys() {
		if err := ml.ShutdownModel(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
