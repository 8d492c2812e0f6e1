package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"dario.cat/mergo"

	"github.com/bnosac/audiowhisper/core/schema"
	"github.com/bnosac/audiowhisper/pkg/xsysinfo"
)

const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
)

var backendNameRe = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// ModelConfig describes a transcription model. It is read from a YAML file
// in the models directory.
type ModelConfig struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Backend     string          `yaml:"backend"`
	Parameters  ModelParameters `yaml:"parameters"`

	// Library overrides the whisper shared library for this model.
	Library      string `yaml:"library,omitempty"`
	Multilingual *bool  `yaml:"multilingual,omitempty"`

	Language        string  `yaml:"language,omitempty"`
	Translate       bool    `yaml:"translate,omitempty"`
	Threads         *int    `yaml:"threads,omitempty"`
	Processors      int     `yaml:"processors,omitempty"`
	WordThreshold   float32 `yaml:"word_threshold,omitempty"`
	MaxLen          int     `yaml:"max_len,omitempty"`
	TokenTimestamps bool    `yaml:"token_timestamps,omitempty"`

	Remote RemoteConfig `yaml:"remote,omitempty"`

	modelConfigFile string
}

type ModelParameters struct {
	Model string `yaml:"model"`
}

// RemoteConfig points the openai backend at an OpenAI compatible server.
type RemoteConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

func (c *ModelConfig) SetDefaults(opts ...ConfigLoaderOption) {
	lo := &LoadOptions{}
	lo.Apply(opts...)

	if c.Backend == "" {
		c.Backend = BackendWhisper
	}
	if c.Name == "" && c.modelConfigFile != "" {
		c.Name = strings.TrimSuffix(filepath.Base(c.modelConfigFile), filepath.Ext(c.modelConfigFile))
	}
	if c.Name == "" {
		c.Name = c.Parameters.Model
	}
	if c.Library == "" {
		c.Library = lo.library
	}

	if c.Threads == nil || *c.Threads <= 0 {
		threads := lo.threads
		if threads <= 0 {
			threads = xsysinfo.DefaultThreads()
		}
		c.Threads = &threads
	}
	if c.Processors < 1 {
		c.Processors = max(1, lo.processors)
	}
	if c.Backend == BackendOpenAI && c.Remote.Model == "" {
		c.Remote.Model = c.Parameters.Model
	}
}

// Validate makes sure the model can be loaded without escaping the models
// directory.
func (c *ModelConfig) Validate() (bool, error) {
	if c.Name == "" {
		return false, fmt.Errorf("model name is required")
	}
	for _, n := range []string{c.Name, c.Parameters.Model} {
		if strings.HasPrefix(n, string(os.PathSeparator)) || strings.Contains(n, "..") {
			return false, fmt.Errorf("invalid file path: %s", n)
		}
	}
	if !backendNameRe.MatchString(c.Backend) {
		return false, fmt.Errorf("invalid backend name: %s", c.Backend)
	}

	switch c.Backend {
	case BackendWhisper:
		if c.Parameters.Model == "" {
			return false, fmt.Errorf("model %s: parameters.model is required", c.Name)
		}
	case BackendOpenAI:
	default:
		return false, fmt.Errorf("model %s: unsupported backend %s", c.Name, c.Backend)
	}
	return true, nil
}

// ModelFile resolves parameters.model against the models directory.
func (c *ModelConfig) ModelFile(modelPath string) string {
	if filepath.IsAbs(c.Parameters.Model) {
		return c.Parameters.Model
	}
	return filepath.Join(modelPath, c.Parameters.Model)
}

// ConfigFile returns the YAML file the configuration was read from.
func (c *ModelConfig) ConfigFile() string {
	return c.modelConfigFile
}

// RequestDefaults returns the request fields implied by the model.
func (c *ModelConfig) RequestDefaults() schema.TranscriptionRequest {
	r := schema.TranscriptionRequest{
		Model:           c.Name,
		Language:        c.Language,
		Translate:       c.Translate,
		Processors:      c.Processors,
		WordThreshold:   c.WordThreshold,
		MaxLen:          c.MaxLen,
		TokenTimestamps: c.TokenTimestamps,
	}
	if c.Threads != nil {
		r.Threads = *c.Threads
	}
	return r
}

// ApplyDefaults fills the zero valued fields of req from the model
// configuration. Fields set by the caller are kept.
func (c *ModelConfig) ApplyDefaults(req *schema.TranscriptionRequest) error {
	defaults := c.RequestDefaults()
	if err := mergo.Merge(req, defaults); err != nil {
		return fmt.Errorf("model %s: cannot merge defaults: %w", c.Name, err)
	}
	return nil
}
