package stt

import (
	"errors"
	"sync"

	"github.com/voxnote/voxnote/internal/pkg/env"
)

// Result is one recognizer output for one audio chunk: either an incremental
// partial or a finalized segment, never both.
type Result struct {
	Text    string
	Partial string
	Final   bool
}

// Recognizer consumes raw audio frames (mono 16-bit PCM) for one stream.
// Close must be called on every exit path; it releases engine resources.
type Recognizer interface {
	Accept(chunk []byte) (Result, error)
	Close()
}

// Engine is the process-wide speech model handle. It is loaded once at
// startup, never mutated afterwards, and shared by all streams.
type Engine interface {
	NewRecognizer(sampleRate float64) (Recognizer, error)
}

var (
	engine  Engine
	setupMu sync.Mutex

	// ErrNotInitialized is returned when a stream is requested before a
	// successful Setup. Startup treats Setup failure as fatal; this exists
	// for the window in tests and tools that skip Setup.
	ErrNotInitialized = errors.New("speech engine not initialized")
)

// Setup loads the speech model from STT_MODEL_PATH. Failure here is a
// startup-fatal condition for the streaming feature, distinct from
// per-request errors.
func Setup() error {
	setupMu.Lock()
	defer setupMu.Unlock()

	if engine != nil {
		return nil
	}

	modelPath := env.GetEnv("STT_MODEL_PATH", "models/vosk-model-en-us-0.22")
	e, err := newVoskEngine(modelPath)
	if err != nil {
		return err
	}
	engine = e
	return nil
}

// Get returns the process-wide engine, or nil before Setup succeeded.
func Get() Engine {
	setupMu.Lock()
	defer setupMu.Unlock()
	return engine
}

// SetEngine overrides the engine; tests use this with a fake.
func SetEngine(e Engine) {
	setupMu.Lock()
	defer setupMu.Unlock()
	engine = e
}

// SampleRate returns the configured inbound audio sample rate in Hz.
func SampleRate() float64 {
	return float64(env.GetEnvInt("STT_SAMPLE_RATE", 48000))
}
