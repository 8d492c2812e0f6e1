package cli

import (
	cliContext "github.com/bnosac/audiowhisper/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Transcript TranscriptCMD `cmd:"" help:"Transcribe 16 kHz WAV files, this is the default command if no other command is specified" default:"withargs"`
	Run        RunCMD        `cmd:"" help:"Serve the OpenAI compatible transcription API"`
	Models     ModelsCMD     `cmd:"" help:"List model definitions and model files"`
	Util       UtilCMD       `cmd:"" help:"Utility commands"`
}
