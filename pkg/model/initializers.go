package model

import (
	"fmt"

	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/pkg/whisper"
)

const (
	WhisperBackend = "whisper"
	OpenAIBackend  = "openai"
)

// Initializer builds an engine from load options.
type Initializer func(o *Options) (whisper.Engine, error)

func whisperInitializer(o *Options) (whisper.Engine, error) {
	if o.modelFile == "" {
		return nil, fmt.Errorf("whisper backend requires a model file")
	}
	lib := o.library
	if lib == "" {
		lib = whisper.DefaultLibrary()
	}
	xlog.Debug("Loading native whisper model", "model", o.modelFile, "library", lib)
	return whisper.LoadNative(lib, o.modelFile)
}

func openAIInitializer(o *Options) (whisper.Engine, error) {
	rc := o.remote
	if o.multilingual != nil {
		rc.Multilingual = o.multilingual
	}
	xlog.Debug("Using remote transcription endpoint", "base_url", rc.BaseURL, "model", rc.Model)
	return whisper.NewRemoteEngine(rc), nil
}
