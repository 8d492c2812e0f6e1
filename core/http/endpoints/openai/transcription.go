package openai

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/core/application"
	"github.com/bnosac/audiowhisper/core/backend"
	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/core/schema"
	"github.com/bnosac/audiowhisper/pkg/audio"
	"github.com/bnosac/audiowhisper/pkg/format"
	"github.com/bnosac/audiowhisper/pkg/xio"
)

var badRequestErrors = []error{
	backend.ErrNoInput,
	backend.ErrUnknownLanguage,
	config.ErrInvalidModelName,
	audio.ErrInvalidWAV,
	audio.ErrChannels,
	audio.ErrDiarizeStereo,
	audio.ErrDiarizeTimestamps,
	audio.ErrSampleRate,
	audio.ErrBitDepth,
}

// transcriptionError maps pipeline errors to HTTP statuses: validation
// problems are the caller's fault, anything else is ours.
func transcriptionError(err error) error {
	if errors.Is(err, backend.ErrModelNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}

func readRequest(c echo.Context, translate bool) (*schema.TranscriptionRequest, format.ResponseFormat, error) {
	input := new(schema.TranscriptionRequest)
	if err := c.Bind(input); err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("failed reading parameters from request: %v", err))
	}
	if v := c.FormValue("max_context"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid max_context %q", v))
		}
		input.MaxContext = &n
	}
	if translate {
		input.Translate = true
	}
	if input.Model == "" {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "model is required")
	}
	resFmt, err := format.ParseResponseFormat(input.ResponseFormat)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return input, resFmt, nil
}

// TranscriptEndpoint is the OpenAI Whisper API endpoint https://platform.openai.com/docs/api-reference/audio/create
// @Summary Transcribes a 16 kHz 16 bit PCM WAV file.
// @accept multipart/form-data
// @Param model formData string true "model"
// @Param file formData file true "file"
// @Success 200 {object} schema.TranscriptionResult "Response"
// @Router /v1/audio/transcriptions [post]
func TranscriptEndpoint(app *application.Application, translate bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		input, resFmt, err := readRequest(c, translate)
		if err != nil {
			return err
		}

		engine, cfg, err := app.Engine(input.Model)
		if err != nil {
			return transcriptionError(err)
		}
		if err := cfg.ApplyDefaults(input); err != nil {
			return err
		}

		// retrieve the file data from the request
		file, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%v: %v", backend.ErrNoInput, err))
		}
		f, err := file.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		dir, err := os.MkdirTemp(app.ApplicationConfig().UploadDir, "whisper")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		dst := filepath.Join(dir, path.Base(file.Filename))
		dstFile, err := os.Create(dst)
		if err != nil {
			return err
		}
		if _, err := xio.Copy(c.Request().Context(), dstFile, f); err != nil {
			dstFile.Close()
			xlog.Debug("Audio file copying error", "filename", file.Filename, "dst", dst, "error", err)
			return err
		}
		if err := dstFile.Close(); err != nil {
			return err
		}
		xlog.Debug("Audio file copied", "dst", dst)

		input.File = dst
		opts := []backend.TranscriptionOption{backend.WithModelName(cfg.Name)}
		if m := app.Metrics(); m != nil {
			opts = append(opts, backend.WithMetrics(m))
		}

		tr, err := backend.ModelTranscription(c.Request().Context(), engine, input, opts...)
		if err != nil {
			return transcriptionError(err)
		}
		tr.Params.Audio = file.Filename
		xlog.Debug("Transcribed", "id", tr.ID, "segments", tr.NSegments)

		if resFmt == format.ResponseFormatJSON {
			return c.JSON(http.StatusOK, tr)
		}
		out, err := format.TranscriptionResponse(tr, resFmt)
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, resFmt.ContentType(), []byte(out))
	}
}
