package cli

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/core/application"
	cliContext "github.com/bnosac/audiowhisper/core/cli/context"
	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/core/http"
	"github.com/bnosac/audiowhisper/internal"
	"github.com/bnosac/audiowhisper/pkg/signals"
)

type RunCMD struct {
	ModelsPath    string        `env:"AUDIOWHISPER_MODELS_PATH,MODELS_PATH" type:"path" default:"${basepath}/models" help:"Path containing models used for inferencing" group:"storage"`
	UploadPath    string        `env:"AUDIOWHISPER_UPLOAD_PATH,UPLOAD_PATH" type:"path" default:"/tmp/audiowhisper/upload" help:"Path to store uploaded audio while it is transcribed" group:"storage"`
	Library       string        `env:"AUDIOWHISPER_LIBRARY" type:"path" help:"whisper shim library to load, defaults to libgowhisper from the library path" group:"storage"`
	WatchModels   bool          `env:"AUDIOWHISPER_WATCH_MODELS" default:"true" help:"Reload model definitions when files in the models path change" group:"storage"`
	WatchInterval time.Duration `env:"AUDIOWHISPER_WATCH_INTERVAL" help:"Also rescan the models path at this interval, for filesystems without working fsnotify events (example: 1m)" group:"storage"`

	Threads    int      `env:"AUDIOWHISPER_THREADS,THREADS" short:"t" help:"Number of threads used per processor. Usage of the number of physical cores in the system is suggested" group:"performance"`
	Processors int      `env:"AUDIOWHISPER_PROCESSORS,PROCESSORS" default:"1" help:"Default number of processors a request is split across" group:"performance"`
	Preload    []string `env:"AUDIOWHISPER_PRELOAD_MODELS,PRELOAD_MODELS" help:"Models to load into memory at startup" group:"models"`

	Address                string   `env:"AUDIOWHISPER_ADDRESS,ADDRESS" default:":8080" help:"Bind address for the API server" group:"api"`
	CORS                   bool     `env:"AUDIOWHISPER_CORS,CORS" group:"api"`
	CORSAllowOrigins       string   `env:"AUDIOWHISPER_CORS_ALLOW_ORIGINS,CORS_ALLOW_ORIGINS" group:"api"`
	UploadLimit            int      `env:"AUDIOWHISPER_UPLOAD_LIMIT,UPLOAD_LIMIT" default:"15" help:"Default upload-limit in MB" group:"api"`
	APIKeys                []string `env:"AUDIOWHISPER_API_KEY,API_KEY" help:"List of API Keys to enable API authentication. When this is set, all the requests must be authenticated with one of these API keys" group:"api"`
	DisableMetricsEndpoint bool     `env:"AUDIOWHISPER_DISABLE_METRICS_ENDPOINT,DISABLE_METRICS_ENDPOINT" default:"false" help:"Disable the /metrics endpoint" group:"api"`
	OpaqueErrors           bool     `env:"AUDIOWHISPER_OPAQUE_ERRORS" default:"false" help:"If true, error responses carry only the status code" group:"hardening"`

	Version bool
}

func (r *RunCMD) Run(ctx *cliContext.Context) error {
	if r.Version {
		fmt.Println(internal.PrintableVersion())
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []config.AppOption{
		config.WithContext(runCtx),
		config.WithModelPath(r.ModelsPath),
		config.WithUploadDir(r.UploadPath),
		config.WithLibPath(r.Library),
		config.WithWatchModelConfigs(r.WatchModels, r.WatchInterval),
		config.WithThreads(r.Threads),
		config.WithProcessors(r.Processors),
		config.WithAddress(r.Address),
		config.WithCors(r.CORS),
		config.WithCorsAllowOrigins(r.CORSAllowOrigins),
		config.WithUploadLimitMB(r.UploadLimit),
		config.WithApiKeys(r.APIKeys),
		config.WithDisableMetrics(r.DisableMetricsEndpoint),
		config.WithOpaqueErrors(r.OpaqueErrors),
	}

	app, err := application.New(opts...)
	if err != nil {
		return fmt.Errorf("failed basic startup tasks with error %s", err.Error())
	}

	for _, m := range r.Preload {
		if _, _, err := app.Engine(m); err != nil {
			xlog.Error("unable to preload model", "model", m, "error", err)
			continue
		}
		xlog.Info("Model loaded", "model", m)
	}

	appHTTP, err := http.API(app)
	if err != nil {
		xlog.Error("error during HTTP App construction", "error", err)
		return err
	}

	xlog.Info("audiowhisper is started and running", "address", r.Address)

	signals.RegisterGracefulTerminationHandler(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 30*time.Second)
		defer done()
		if err := appHTTP.Shutdown(shutdownCtx); err != nil {
			xlog.Error("error while shutting down the API server", "error", err)
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			xlog.Error("error while stopping the loaded models", "error", err)
		}
	})

	if err := appHTTP.Start(r.Address); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
