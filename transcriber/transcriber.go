// Package transcriber wraps a speech-recognition engine behind an
// adapter that loads asynchronously and serializes invocation.
package transcriber

import (
	"context"
	"fmt"
	"time"
)

type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Request carries one inference call: mono float32 samples normalized
// to [-1,1] at 16 kHz, plus optional hints.
type Request struct {
	Samples  []float32
	Language string
	Task     string
}

// Result is the fixed transcription shape. Text, Segments and Language
// come from the engine; the timing fields are filled in by the adapter
// after each call.
type Result struct {
	Text     string
	Segments []Segment
	Language string

	EngineTime    time.Duration
	AudioDuration time.Duration
	RTF           float64
}

// Engine is one loaded speech-recognition backend. Implementations are
// not required to be reentrant; the adapter never invokes one
// concurrently.
type Engine interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
	Close() error
}

// EngineFactory constructs and fully loads an engine for a model
// identifier from the catalog.
type EngineFactory func(model string) (Engine, error)

// LoadError is fatal to one model instance only; the pipeline may
// retry with a different model via Swap.
type LoadError struct {
	Model string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading model %q: %v", e.Model, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// TranscribeError is a per-request failure; the adapter stays usable
// for the next call.
type TranscribeError struct {
	Err error
}

func (e *TranscribeError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscribeError) Unwrap() error { return e.Err }
