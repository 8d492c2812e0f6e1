package cli

import (
	"fmt"

	"github.com/mudler/xlog"

	cliContext "github.com/bnosac/audiowhisper/core/cli/context"
	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/pkg/model"
)

type ModelsCMDFlags struct {
	ModelsPath string `env:"AUDIOWHISPER_MODELS_PATH,MODELS_PATH" type:"path" default:"${basepath}/models" help:"Path containing models used for inferencing" group:"storage"`
}

type ModelsList struct {
	ModelsCMDFlags `embed:""`
}

type ModelsCMD struct {
	List ModelsList `cmd:"" help:"List the model definitions and model files of the models path" default:"withargs"`
}

func (ml *ModelsList) Run(ctx *cliContext.Context) error {
	cl := config.NewModelConfigLoader(ml.ModelsPath)
	if err := cl.LoadModelConfigsFromPath(ml.ModelsPath); err != nil {
		xlog.Error("unable to load model definitions", "error", err)
	}

	referenced := map[string]bool{}
	for _, c := range cl.GetAllModelsConfigs() {
		referenced[c.Parameters.Model] = true
		target := c.Parameters.Model
		if c.Backend == config.BackendOpenAI {
			target = c.Remote.BaseURL
		}
		fmt.Printf(" * %s (%s: %s)\n", c.Name, c.Backend, target)
	}

	files, err := model.NewModelLoader(ml.ModelsPath).ListFilesInModelPath()
	if err != nil {
		return err
	}
	for _, f := range files {
		if referenced[f] {
			continue
		}
		fmt.Printf(" - %s\n", f)
	}
	return nil
}
