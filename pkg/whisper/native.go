package whisper

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/purego"
	"github.com/mudler/xlog"
)

// Entry points of libgowhisper (backend/cpp/whisper). The shim keeps a
// single whisper_context per process.
var (
	CppLoadModel      func(modelPath string) int32
	CppFreeModel      func()
	CppIsMultilingual func() int32
	CppLangID         func(lang string) int32
	CppTokenEOT       func() int32
	CppSetCallbacks   func(newSegment, encoderBegin, progress uintptr)
	CppFullParallel   func(lang string, params *nativeParams, pcm *float32, nSamples int32, nProcessors int32) int32
	CppNSegments      func() int32
	CppSegmentText    func(i int32) string
	CppSegmentT0      func(i int32) int64
	CppSegmentT1      func(i int32) int64
	CppNTokens        func(i int32) int32
	CppTokenID        func(i, j int32) int32
	CppTokenText      func(i, j int32) string
	CppTokenP         func(i, j int32) float32
	CppTokenT0        func(i, j int32) int64
	CppTokenT1        func(i, j int32) int64
)

type LibFuncs struct {
	FuncPtr any
	Name    string
}

// nativeParams mirrors gw_params in gowhisper.h.
type nativeParams struct {
	Translate       int32
	NThreads        int32
	NMaxTextCtx     int32
	OffsetMS        int32
	DurationMS      int32
	PrintSpecial    int32
	PrintRealtime   int32
	PrintProgress   int32
	PrintTimestamps int32
	TokenTimestamps int32
	TholdPt         float32
	MaxLen          int32
	SpeedUp         int32
}

var (
	libOnce sync.Once
	libErr  error

	// callbacks can only be created a bounded number of times, so they are
	// registered once and dispatch to whichever session is running.
	activeSession atomic.Pointer[nativeSession]

	loadedMu    sync.Mutex
	loadedModel string
)

// DefaultLibrary returns the shim library name, honouring
// AUDIOWHISPER_WHISPER_LIBRARY.
func DefaultLibrary() string {
	if lib := os.Getenv("AUDIOWHISPER_WHISPER_LIBRARY"); lib != "" {
		return lib
	}
	if runtime.GOOS == "darwin" {
		return "./libgowhisper.dylib"
	}
	return "./libgowhisper.so"
}

func loadLibrary(libName string) error {
	libOnce.Do(func() {
		lib, err := purego.Dlopen(libName, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libErr = fmt.Errorf("loading %s: %w", libName, err)
			return
		}

		libFuncs := []LibFuncs{
			{&CppLoadModel, "load_model"},
			{&CppFreeModel, "free_model"},
			{&CppIsMultilingual, "is_multilingual"},
			{&CppLangID, "lang_id"},
			{&CppTokenEOT, "token_eot"},
			{&CppSetCallbacks, "set_callbacks"},
			{&CppFullParallel, "full_parallel"},
			{&CppNSegments, "n_segments"},
			{&CppSegmentText, "get_segment_text"},
			{&CppSegmentT0, "get_segment_t0"},
			{&CppSegmentT1, "get_segment_t1"},
			{&CppNTokens, "n_tokens"},
			{&CppTokenID, "get_token_id"},
			{&CppTokenText, "get_token_text"},
			{&CppTokenP, "get_token_p"},
			{&CppTokenT0, "get_token_t0"},
			{&CppTokenT1, "get_token_t1"},
		}
		for _, lf := range libFuncs {
			purego.RegisterLibFunc(lf.FuncPtr, lib, lf.Name)
		}

		CppSetCallbacks(
			purego.NewCallback(onNewSegment),
			purego.NewCallback(onEncoderBegin),
			purego.NewCallback(onProgress),
		)
	})
	return libErr
}

func onNewSegment(nNew uintptr) uintptr {
	if s := activeSession.Load(); s != nil && s.cfg.NewSegment != nil {
		s.cfg.NewSegment(s, int(int32(nNew)))
	}
	return 0
}

func onEncoderBegin() uintptr {
	if s := activeSession.Load(); s != nil && s.cfg.EncoderBegin != nil && !s.cfg.EncoderBegin() {
		return 0
	}
	return 1
}

func onProgress(progress uintptr) uintptr {
	if s := activeSession.Load(); s != nil && s.cfg.Progress != nil {
		s.cfg.Progress(int(int32(progress)))
	}
	return 0
}

// NativeEngine runs whisper.cpp in-process. whisper_full_parallel splits
// the audio across native threads, one per processor.
type NativeEngine struct {
	mu           sync.Mutex
	modelPath    string
	multilingual bool
	eot          int
	closed       bool
}

// LoadNative opens the shim library and loads a ggml model file. Only one
// model can be resident per process.
func LoadNative(libName, modelPath string) (*NativeEngine, error) {
	if err := loadLibrary(libName); err != nil {
		return nil, err
	}

	loadedMu.Lock()
	defer loadedMu.Unlock()
	if loadedModel != "" {
		return nil, fmt.Errorf("%w: %s", ErrModelInUse, loadedModel)
	}

	if ret := CppLoadModel(modelPath); ret != 0 {
		return nil, fmt.Errorf("failed to load whisper model %s (code %d)", modelPath, ret)
	}
	loadedModel = modelPath

	e := &NativeEngine{
		modelPath:    modelPath,
		multilingual: CppIsMultilingual() != 0,
		eot:          int(CppTokenEOT()),
	}
	xlog.Info("whisper model loaded", "model", modelPath, "multilingual", e.multilingual)
	return e, nil
}

func (e *NativeEngine) IsMultilingual() bool { return e.multilingual }
func (e *NativeEngine) TokenEOT() int { return e.eot }

func (e *NativeEngine) LangID(lang string) int {
	return int(CppLangID(lang))
}

// NewSession blocks until no other session holds the model; the session
// keeps it until Close.
func (e *NativeEngine) NewSession(cfg Config) (Session, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrNotLoaded
	}
	return &nativeSession{engine: e, cfg: cfg}, nil
}

func (e *NativeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	loadedMu.Lock()
	defer loadedMu.Unlock()
	CppFreeModel()
	loadedModel = ""
	return nil
}

type nativeSession struct {
	engine *NativeEngine
	cfg    Config
	once   sync.Once
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (s *nativeSession) Run(ctx context.Context, samples []float32, processors int) error {
	if len(samples) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p := nativeParams{
		Translate:       boolInt(s.cfg.Translate),
		NThreads:        int32(s.cfg.Threads),
		NMaxTextCtx:     int32(s.cfg.MaxTextContext),
		OffsetMS:        int32(s.cfg.OffsetMS),
		DurationMS:      int32(s.cfg.DurationMS),
		PrintSpecial:    boolInt(s.cfg.PrintSpecial),
		PrintRealtime:   boolInt(s.cfg.PrintRealtime),
		PrintProgress:   boolInt(s.cfg.PrintProgress),
		PrintTimestamps: boolInt(s.cfg.PrintTimestamps),
		TokenTimestamps: boolInt(s.cfg.TokenTimestamps),
		TholdPt:         s.cfg.TokenThreshold,
		MaxLen:          int32(s.cfg.MaxLen),
		SpeedUp:         boolInt(s.cfg.SpeedUp),
	}

	activeSession.Store(s)
	defer activeSession.Store(nil)

	ret := CppFullParallel(s.cfg.Language, &p, &samples[0], int32(len(samples)), int32(processors))
	runtime.KeepAlive(samples)
	// whisper_full reports success when encoder_begin stops it, so the
	// hook is checked regardless of ret.
	if s.cfg.EncoderBegin != nil && !s.cfg.EncoderBegin() {
		return ErrAborted
	}
	if ret != 0 {
		return fmt.Errorf("%w (code %d)", ErrRunFailed, ret)
	}
	return nil
}

func (s *nativeSession) Close() error {
	s.once.Do(s.engine.mu.Unlock)
	return nil
}

func (s *nativeSession) NSegments() int { return int(CppNSegments()) }
func (s *nativeSession) SegmentText(i int) string { return CppSegmentText(int32(i)) }
func (s *nativeSession) SegmentT0(i int) int64 { return CppSegmentT0(int32(i)) }
func (s *nativeSession) SegmentT1(i int) int64 { return CppSegmentT1(int32(i)) }
func (s *nativeSession) NTokens(i int) int { return int(CppNTokens(int32(i))) }
func (s *nativeSession) TokenID(i, j int) int { return int(CppTokenID(int32(i), int32(j))) }
func (s *nativeSession) TokenText(i, j int) string { return CppTokenText(int32(i), int32(j)) }
func (s *nativeSession) TokenP(i, j int) float32 { return CppTokenP(int32(i), int32(j)) }

func (s *nativeSession) TokenData(i, j int) TokenData {
	return TokenData{
		ID: s.TokenID(i, j),
		P:  s.TokenP(i, j),
		T0: CppTokenT0(int32(i), int32(j)),
		T1: CppTokenT1(int32(i), int32(j)),
	}
}
