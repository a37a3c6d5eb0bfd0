// Package pipeline ties combo press and release to the record,
// transcribe, insert cycle.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"murmur/insert"
	"murmur/transcriber"
)

type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

type Recorder interface {
	StartRecording() error
	StopRecording() []float32
}

type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (*transcriber.Result, error)
	Swap(model string) error
}

type Injector interface {
	Insert(text string, strategy insert.Strategy) error
}

// EventSink abstracts the display layer so the console output and
// tests receive the same recording and transcription events.
type EventSink interface {
	RecordingStart()
	RecordingStop(duration time.Duration)
	Transcription(text string, res *transcriber.Result)
	NoSpeech()
	Error(stage string, err error)
}

type NopSink struct{}

func (NopSink) RecordingStart()                           {}
func (NopSink) RecordingStop(time.Duration)               {}
func (NopSink) Transcription(string, *transcriber.Result) {}
func (NopSink) NoSpeech()                                 {}
func (NopSink) Error(string, error)                       {}

// Stats accumulates over the session, counting only cycles that
// produced inserted text.
type Stats struct {
	Transcriptions int
	Recorded       time.Duration
}

// Pipeline is the two-state orchestrator. Press and release arrive on
// the caller's goroutine; finishing work (transcribe and insert) runs
// detached so the next recording can start immediately.
type Pipeline struct {
	rec   Recorder
	tr    Transcriber
	inj   Injector
	sink  EventSink
	tasks Group

	mu      sync.Mutex
	state   State
	enabled bool
	started time.Time
	stats   Stats
}

func New(rec Recorder, tr Transcriber, inj Injector, sink EventSink) *Pipeline {
	if sink == nil {
		sink = NopSink{}
	}
	return &Pipeline{rec: rec, tr: tr, inj: inj, sink: sink, enabled: true}
}

// HandlePress starts a recording. Pressed combos are ignored while
// disabled or already recording; a device failure reports through the
// sink and leaves the pipeline idle and usable.
func (p *Pipeline) HandlePress() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled || p.state == Recording {
		return
	}
	if err := p.rec.StartRecording(); err != nil {
		p.sink.Error("record", err)
		return
	}
	p.state = Recording
	p.started = time.Now()
	p.sink.RecordingStart()
}

// HandleRelease stops the recording and hands the captured audio to a
// detached finishing task. With rapid press-release cycles several
// finishing tasks may overlap; completion order is not guaranteed.
func (p *Pipeline) HandleRelease() {
	p.mu.Lock()
	if p.state != Recording {
		p.mu.Unlock()
		return
	}
	samples := p.rec.StopRecording()
	dur := time.Since(p.started)
	p.state = Idle
	p.mu.Unlock()

	p.sink.RecordingStop(dur)
	p.tasks.Go("finish", func() {
		p.finish(samples, dur)
	})
}

func (p *Pipeline) finish(samples []float32, dur time.Duration) {
	if len(samples) == 0 {
		p.sink.NoSpeech()
		return
	}

	res, err := p.tr.Transcribe(context.Background(), samples)
	if err != nil {
		p.sink.Error("transcribe", err)
		return
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		p.sink.NoSpeech()
		return
	}

	if err := p.inj.Insert(text, insert.Auto); err != nil {
		p.sink.Error("insert", err)
		return
	}

	p.mu.Lock()
	p.stats.Transcriptions++
	p.stats.Recorded += dur
	p.mu.Unlock()

	p.sink.Transcription(text, res)
}

// SetEnabled gates new recordings. Disabling during a recording stops
// the device and discards the audio.
func (p *Pipeline) SetEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = on
	if !on && p.state == Recording {
		p.rec.StopRecording()
		p.state = Idle
	}
}

func (p *Pipeline) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// SwapModel replaces the speech model for subsequent cycles.
func (p *Pipeline) SwapModel(model string) error {
	return p.tr.Swap(model)
}

// Wait blocks until all in-flight finishing tasks complete.
func (p *Pipeline) Wait() {
	p.tasks.Wait()
}
