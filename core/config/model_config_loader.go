package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mudler/xlog"
	"gopkg.in/yaml.v3"

	"github.com/bnosac/audiowhisper/pkg/utils"
)

// ErrInvalidModelName is returned for model names that point outside the
// models path.
var ErrInvalidModelName = errors.New("invalid model name")

type ModelConfigLoader struct {
	configs   map[string]ModelConfig
	modelPath string
	sync.Mutex
}

func NewModelConfigLoader(modelPath string) *ModelConfigLoader {
	return &ModelConfigLoader{
		configs:   make(map[string]ModelConfig),
		modelPath: modelPath,
	}
}

type LoadOptions struct {
	modelPath  string
	library    string
	threads    int
	processors int
}

type ConfigLoaderOption func(*LoadOptions)

func LoadOptionThreads(threads int) ConfigLoaderOption {
	return func(o *LoadOptions) {
		o.threads = threads
	}
}

func LoadOptionProcessors(processors int) ConfigLoaderOption {
	return func(o *LoadOptions) {
		o.processors = processors
	}
}

func LoadOptionLibrary(library string) ConfigLoaderOption {
	return func(o *LoadOptions) {
		o.library = library
	}
}

func ModelPath(modelPath string) ConfigLoaderOption {
	return func(o *LoadOptions) {
		o.modelPath = modelPath
	}
}

func (lo *LoadOptions) Apply(options ...ConfigLoaderOption) {
	for _, l := range options {
		l(lo)
	}
}

func isConfigFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

func readModelConfigFromFile(file string, opts ...ConfigLoaderOption) (*ModelConfig, error) {
	f, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %q: %w", file, err)
	}
	c := &ModelConfig{}
	if err := yaml.Unmarshal(f, c); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config file %q: %w", file, err)
	}
	c.modelConfigFile = file
	c.SetDefaults(opts...)
	return c, nil
}

// LoadModelConfigFileByName returns the configuration registered under
// modelName. When there is none, <modelPath>/<modelName>.yaml is read; when
// that does not exist either, modelName is taken to be a whisper model file.
func (bcl *ModelConfigLoader) LoadModelConfigFileByName(modelName, modelPath string, opts ...ConfigLoaderOption) (*ModelConfig, error) {
	if cfg, exists := bcl.GetModelConfig(modelName); exists {
		return &cfg, nil
	}

	if filepath.IsAbs(modelName) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModelName, modelName)
	}
	if err := utils.VerifyPath(modelName, modelPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidModelName, modelName, err)
	}

	modelConfig := filepath.Join(modelPath, modelName+".yaml")
	if _, err := os.Stat(modelConfig); err == nil {
		if err := bcl.ReadModelConfig(modelConfig, opts...); err != nil {
			return nil, fmt.Errorf("failed loading model config (%s): %w", modelConfig, err)
		}
		if cfg, exists := bcl.GetModelConfig(modelName); exists {
			return &cfg, nil
		}
	}

	cfg := &ModelConfig{Name: modelName, Parameters: ModelParameters{Model: modelName}}
	cfg.SetDefaults(append(opts, ModelPath(modelPath))...)
	if _, err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (bcl *ModelConfigLoader) LoadModelConfigFileByNameDefaultOptions(modelName string, appConfig *ApplicationConfig) (*ModelConfig, error) {
	return bcl.LoadModelConfigFileByName(modelName, appConfig.ModelPath, appConfig.ToConfigLoaderOptions()...)
}

func (bcl *ModelConfigLoader) ReadModelConfig(file string, opts ...ConfigLoaderOption) error {
	c, err := readModelConfigFromFile(file, opts...)
	if err != nil {
		return fmt.Errorf("ReadModelConfig: %w", err)
	}
	if _, err := c.Validate(); err != nil {
		return fmt.Errorf("config %s is not valid: %w", file, err)
	}

	bcl.Lock()
	defer bcl.Unlock()
	bcl.configs[c.Name] = *c
	return nil
}

func (bcl *ModelConfigLoader) GetModelConfig(m string) (ModelConfig, bool) {
	bcl.Lock()
	defer bcl.Unlock()
	v, exists := bcl.configs[m]
	return v, exists
}

func (bcl *ModelConfigLoader) GetAllModelsConfigs() []ModelConfig {
	bcl.Lock()
	defer bcl.Unlock()
	var res []ModelConfig
	for _, v := range bcl.configs {
		res = append(res, v)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Name < res[j].Name
	})

	return res
}

func (bcl *ModelConfigLoader) RemoveModelConfig(m string) {
	bcl.Lock()
	defer bcl.Unlock()
	delete(bcl.configs, m)
}

// removeConfigFile drops every configuration read from file.
func (bcl *ModelConfigLoader) removeConfigFile(file string) []string {
	bcl.Lock()
	defer bcl.Unlock()
	var removed []string
	for name, c := range bcl.configs {
		if c.modelConfigFile == file {
			delete(bcl.configs, name)
			removed = append(removed, name)
		}
	}
	return removed
}

// LoadModelConfigsFromPath reads all the configurations of the models from a path
// (non-recursive)
func (bcl *ModelConfigLoader) LoadModelConfigsFromPath(path string, opts ...ConfigLoaderOption) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("LoadModelConfigsFromPath cannot read directory '%s': %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isConfigFile(entry.Name()) {
			continue
		}
		if err := bcl.ReadModelConfig(filepath.Join(path, entry.Name()), opts...); err != nil {
			xlog.Error("LoadModelConfigsFromPath cannot read config file", "error", err, "File Name", entry.Name())
		}
	}
	return nil
}
