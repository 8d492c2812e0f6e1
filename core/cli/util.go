package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-audio/wav"
	"github.com/mudler/xlog"

	cliContext "github.com/bnosac/audiowhisper/core/cli/context"
	"github.com/bnosac/audiowhisper/pkg/audio"
	"github.com/bnosac/audiowhisper/pkg/whisper"
	"github.com/bnosac/audiowhisper/pkg/xsysinfo"
)

type UtilCMD struct {
	WAVInfo   WAVInfoCMD   `cmd:"" name:"wav-info" help:"Show the format of WAV files and whether they can be transcribed"`
	Languages LanguagesCMD `cmd:"" help:"List the accepted language codes"`
	SysInfo   SysInfoCMD   `cmd:"" name:"sysinfo" help:"Show the CPU features and memory seen by the engine"`
}

type WAVInfoCMD struct {
	Args    []string `arg:"" name:"files" type:"existingfile" help:"Audio files to inspect"`
	Diarize bool     `help:"Also check the files can be diarized"`
}

func (u *WAVInfoCMD) Run(ctx *cliContext.Context) error {
	for _, path := range u.Args {
		if err := wavInfo(path, u.Diarize); err != nil {
			return err
		}
	}
	return nil
}

func wavInfo(path string, diarize bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		kind := audio.Identify(f)
		if kind == "" {
			kind = "unknown"
		}
		fmt.Printf("%s: not a WAV file (%s), convert it with: ffmpeg -i %s -ar 16000 -ac 1 -c:a pcm_s16le out.wav\n", path, kind, path)
		return nil
	}
	d.ReadInfo()
	dur, err := d.Duration()
	if err != nil {
		xlog.Debug("unable to compute duration", "file", path, "error", err)
	}
	fmt.Printf("%s: %d Hz, %d channel(s), %d bit, format %d, %s\n", path, d.SampleRate, d.NumChans, d.BitDepth, d.WavAudioFormat, dur)

	if _, err := audio.Load(path, audio.LoadOptions{Diarize: diarize}); err != nil {
		fmt.Printf("%s: cannot be transcribed: %v\n", path, err)
		return nil
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}

type LanguagesCMD struct{}

func (l *LanguagesCMD) Run(ctx *cliContext.Context) error {
	fmt.Println(strings.Join(append([]string{whisper.AutoLanguage}, whisper.Languages()...), " "))
	return nil
}

type SysInfoCMD struct {
	Threads    int `short:"t" help:"Threads to report, defaults to the engine default"`
	Processors int `short:"p" default:"1" help:"Processors to report"`
}

func (s *SysInfoCMD) Run(ctx *cliContext.Context) error {
	threads := s.Threads
	if threads < 1 {
		threads = xsysinfo.DefaultThreads()
	}
	fmt.Println(xsysinfo.SystemInfo(threads, s.Processors))
	fmt.Printf("physical cores: %d\n", xsysinfo.CPUPhysicalCores())
	return nil
}
