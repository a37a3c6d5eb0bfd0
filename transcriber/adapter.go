package transcriber

import (
	"context"
	"errors"
	"sync"
	"time"

	"murmur/encoder"
)

// MinAudio is the shortest input some backends accept without
// destabilizing; anything shorter is padded with trailing silence.
const MinAudio = 100 * time.Millisecond

// ErrClosed is returned by Transcribe once the adapter is closed.
var ErrClosed = errors.New("transcriber is closed")

var minSamples = int(MinAudio.Seconds() * encoder.SampleRate)

// handle pairs one loaded engine with the lock that serializes its
// invocation. Swapping installs a fresh handle; callers already inside
// an old handle's lock finish on the engine they acquired.
type handle struct {
	mu  sync.Mutex
	eng Engine
}

// Adapter owns the current engine handle. Construction starts the
// model load in the background so callers are never blocked on
// startup; the first Transcribe (or EnsureReady) waits for it.
type Adapter struct {
	factory EngineFactory
	lang    string
	task    string

	loadDone chan struct{}

	mu      sync.Mutex
	cur     *handle
	loadErr error
}

func NewAdapter(model string, factory EngineFactory, language string) *Adapter {
	a := &Adapter{
		factory:  factory,
		lang:     language,
		task:     "transcribe",
		loadDone: make(chan struct{}),
	}
	go func() {
		defer close(a.loadDone)
		eng, err := factory(model)
		a.mu.Lock()
		defer a.mu.Unlock()
		if err != nil {
			a.loadErr = &LoadError{Model: model, Err: err}
			return
		}
		a.cur = &handle{eng: eng}
	}()
	return a
}

// EnsureReady blocks until the initial load finishes and reports its
// outcome. Once loaded it returns immediately.
func (a *Adapter) EnsureReady(ctx context.Context) error {
	select {
	case <-a.loadDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadErr
}

// Transcribe runs one inference call. The current handle is locked for
// the call's whole duration, so at most one inference runs
// process-wide; concurrent callers block until the lock frees, with no
// ordering guarantee beyond eventual completion.
func (a *Adapter) Transcribe(ctx context.Context, samples []float32) (*Result, error) {
	if err := a.EnsureReady(ctx); err != nil {
		return nil, err
	}

	samples = padSilence(samples, minSamples)

	a.mu.Lock()
	h := a.cur
	a.mu.Unlock()
	if h == nil {
		return nil, ErrClosed
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	res, err := h.eng.Transcribe(ctx, Request{
		Samples:  samples,
		Language: a.lang,
		Task:     a.task,
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, &TranscribeError{Err: err}
	}

	res.EngineTime = elapsed
	res.AudioDuration = time.Duration(float64(len(samples)) / encoder.SampleRate * float64(time.Second))
	if res.AudioDuration > 0 {
		res.RTF = elapsed.Seconds() / res.AudioDuration.Seconds()
	}
	return res, nil
}

// Swap loads a new model and installs it as current once loaded. The
// old engine is released only after install, and only after any
// in-flight call holding its lock finishes. A failed load leaves the
// current engine in place.
func (a *Adapter) Swap(model string) error {
	eng, err := a.factory(model)
	if err != nil {
		return &LoadError{Model: model, Err: err}
	}

	// The initial load gate keeps one meaning for EnsureReady.
	<-a.loadDone

	a.mu.Lock()
	old := a.cur
	a.cur = &handle{eng: eng}
	a.loadErr = nil
	a.mu.Unlock()

	if old != nil {
		go func() {
			old.mu.Lock()
			old.mu.Unlock()
			old.eng.Close()
		}()
	}
	return nil
}

// Close releases the current engine once any in-flight call finishes.
func (a *Adapter) Close() error {
	<-a.loadDone
	a.mu.Lock()
	h := a.cur
	a.cur = nil
	a.mu.Unlock()
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.eng.Close()
}

// Language reports the configured language hint.
func (a *Adapter) Language() string { return a.lang }

func padSilence(samples []float32, min int) []float32 {
	if len(samples) >= min {
		return samples
	}
	padded := make([]float32, min)
	copy(padded, samples)
	return padded
}
