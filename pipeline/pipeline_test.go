package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/insert"
	"murmur/transcriber"
)

type fakeRecorder struct {
	mu       sync.Mutex
	samples  []float32
	startErr error
	starts   int
	stops    int
}

func (r *fakeRecorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.starts++
	return nil
}

func (r *fakeRecorder) StopRecording() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return r.samples
}

func (r *fakeRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.stops
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
	block chan struct{}
	model string
}

func (tr *fakeTranscriber) Transcribe(ctx context.Context, samples []float32) (*transcriber.Result, error) {
	tr.mu.Lock()
	tr.calls++
	block := tr.block
	tr.mu.Unlock()
	if block != nil {
		<-block
	}
	if tr.err != nil {
		return nil, tr.err
	}
	return &transcriber.Result{Text: tr.text, AudioDuration: time.Second}, nil
}

func (tr *fakeTranscriber) Swap(model string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.model = model
	return nil
}

func (tr *fakeTranscriber) callCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.calls
}

type fakeInjector struct {
	mu       sync.Mutex
	inserted []string
	err      error
}

func (in *fakeInjector) Insert(text string, _ insert.Strategy) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.err != nil {
		return in.err
	}
	in.inserted = append(in.inserted, text)
	return nil
}

func (in *fakeInjector) texts() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.inserted...)
}

type recordingSink struct {
	mu       sync.Mutex
	starts   int
	stops    int
	noSpeech int
	errors   []string
	texts    []string
}

func (s *recordingSink) RecordingStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
}

func (s *recordingSink) RecordingStop(time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *recordingSink) Transcription(text string, _ *transcriber.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
}

func (s *recordingSink) NoSpeech() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noSpeech++
}

func (s *recordingSink) Error(stage string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, stage)
}

type sinkSnapshot struct {
	starts   int
	stops    int
	noSpeech int
	errors   []string
	texts    []string
}

func (s *recordingSink) snapshot() sinkSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sinkSnapshot{
		starts:   s.starts,
		stops:    s.stops,
		noSpeech: s.noSpeech,
		errors:   append([]string(nil), s.errors...),
		texts:    append([]string(nil), s.texts...),
	}
}

func newTestPipeline(rec *fakeRecorder, tr *fakeTranscriber, inj *fakeInjector, sink EventSink) *Pipeline {
	if rec == nil {
		rec = &fakeRecorder{samples: []float32{0.1, 0.2}}
	}
	if tr == nil {
		tr = &fakeTranscriber{text: "hello"}
	}
	if inj == nil {
		inj = &fakeInjector{}
	}
	return New(rec, tr, inj, sink)
}

func TestFullCycle(t *testing.T) {
	rec := &fakeRecorder{samples: []float32{0.1}}
	inj := &fakeInjector{}
	sink := &recordingSink{}
	p := newTestPipeline(rec, &fakeTranscriber{text: " hello world "}, inj, sink)

	p.HandlePress()
	if p.State() != Recording {
		t.Fatal("expected Recording after press")
	}
	p.HandleRelease()
	p.Wait()

	if p.State() != Idle {
		t.Error("expected Idle after release")
	}
	if got := inj.texts(); len(got) != 1 || got[0] != "hello world" {
		t.Errorf("inserted = %v, want trimmed text", got)
	}
	s := sink.snapshot()
	if s.starts != 1 || s.stops != 1 || len(s.texts) != 1 {
		t.Errorf("sink = %+v", s)
	}
	stats := p.Stats()
	if stats.Transcriptions != 1 {
		t.Errorf("Transcriptions = %d, want 1", stats.Transcriptions)
	}
	if stats.Recorded <= 0 {
		t.Errorf("Recorded = %v, want > 0", stats.Recorded)
	}
}

func TestPressWhileRecordingIgnored(t *testing.T) {
	rec := &fakeRecorder{samples: []float32{0.1}}
	p := newTestPipeline(rec, nil, nil, nil)

	p.HandlePress()
	p.HandlePress()
	p.HandlePress()

	if starts, _ := rec.counts(); starts != 1 {
		t.Errorf("starts = %d, want 1", starts)
	}
	p.HandleRelease()
	p.Wait()
}

func TestReleaseWhileIdleIgnored(t *testing.T) {
	rec := &fakeRecorder{}
	sink := &recordingSink{}
	p := newTestPipeline(rec, nil, nil, sink)

	p.HandleRelease()
	p.Wait()

	if _, stops := rec.counts(); stops != 0 {
		t.Errorf("stops = %d, want 0", stops)
	}
	if s := sink.snapshot(); s.stops != 0 {
		t.Errorf("sink stops = %d, want 0", s.stops)
	}
}

func TestEmptyCaptureSkipsTranscription(t *testing.T) {
	rec := &fakeRecorder{samples: nil}
	tr := &fakeTranscriber{text: "should not run"}
	inj := &fakeInjector{}
	sink := &recordingSink{}
	p := newTestPipeline(rec, tr, inj, sink)

	p.HandlePress()
	p.HandleRelease()
	p.Wait()

	if tr.callCount() != 0 {
		t.Error("transcriber called for empty capture")
	}
	if s := sink.snapshot(); s.noSpeech != 1 {
		t.Errorf("noSpeech = %d, want 1", s.noSpeech)
	}
	if p.Stats().Transcriptions != 0 {
		t.Error("empty cycle counted in stats")
	}
}

func TestWhitespaceOnlyTextNotInserted(t *testing.T) {
	inj := &fakeInjector{}
	sink := &recordingSink{}
	p := newTestPipeline(&fakeRecorder{samples: []float32{0.1}}, &fakeTranscriber{text: "  \n "}, inj, sink)

	p.HandlePress()
	p.HandleRelease()
	p.Wait()

	if len(inj.texts()) != 0 {
		t.Error("whitespace-only text was inserted")
	}
	if s := sink.snapshot(); s.noSpeech != 1 {
		t.Errorf("noSpeech = %d, want 1", s.noSpeech)
	}
}

func TestRecordStartFailureReported(t *testing.T) {
	rec := &fakeRecorder{startErr: errors.New("device unavailable")}
	sink := &recordingSink{}
	p := newTestPipeline(rec, nil, nil, sink)

	p.HandlePress()

	if p.State() != Idle {
		t.Error("pipeline should stay Idle after start failure")
	}
	s := sink.snapshot()
	if len(s.errors) != 1 || s.errors[0] != "record" {
		t.Errorf("errors = %v", s.errors)
	}

	// Next press still works; one failed cycle never wedges the loop.
	rec.startErr = nil
	p.HandlePress()
	if p.State() != Recording {
		t.Error("pipeline should recover on the next press")
	}
	p.HandleRelease()
	p.Wait()
}

func TestTranscribeFailureReported(t *testing.T) {
	tr := &fakeTranscriber{err: errors.New("server error")}
	inj := &fakeInjector{}
	sink := &recordingSink{}
	p := newTestPipeline(&fakeRecorder{samples: []float32{0.1}}, tr, inj, sink)

	p.HandlePress()
	p.HandleRelease()
	p.Wait()

	s := sink.snapshot()
	if len(s.errors) != 1 || s.errors[0] != "transcribe" {
		t.Errorf("errors = %v", s.errors)
	}
	if len(inj.texts()) != 0 {
		t.Error("insert ran after transcription failure")
	}
	if p.State() != Idle {
		t.Error("pipeline should be Idle and ready after failure")
	}
}

func TestInsertFailureReported(t *testing.T) {
	inj := &fakeInjector{err: errors.New("no uinput")}
	sink := &recordingSink{}
	p := newTestPipeline(&fakeRecorder{samples: []float32{0.1}}, nil, inj, sink)

	p.HandlePress()
	p.HandleRelease()
	p.Wait()

	s := sink.snapshot()
	if len(s.errors) != 1 || s.errors[0] != "insert" {
		t.Errorf("errors = %v", s.errors)
	}
	if p.Stats().Transcriptions != 0 {
		t.Error("failed insert counted in stats")
	}
}

func TestOverlappingFinishTasks(t *testing.T) {
	block := make(chan struct{})
	tr := &fakeTranscriber{text: "slow", block: block}
	rec := &fakeRecorder{samples: []float32{0.1}}
	p := newTestPipeline(rec, tr, nil, nil)

	// First cycle's finish blocks in the transcriber; a second cycle
	// must still record and release.
	p.HandlePress()
	p.HandleRelease()
	p.HandlePress()
	if p.State() != Recording {
		t.Fatal("second recording blocked by pending finish")
	}
	p.HandleRelease()

	close(block)
	p.Wait()

	if tr.callCount() != 2 {
		t.Errorf("transcriber calls = %d, want 2", tr.callCount())
	}
}

func TestDisabledIgnoresPress(t *testing.T) {
	rec := &fakeRecorder{samples: []float32{0.1}}
	p := newTestPipeline(rec, nil, nil, nil)

	p.SetEnabled(false)
	p.HandlePress()
	if starts, _ := rec.counts(); starts != 0 {
		t.Errorf("starts = %d while disabled, want 0", starts)
	}

	p.SetEnabled(true)
	p.HandlePress()
	if p.State() != Recording {
		t.Error("press ignored after re-enable")
	}
	p.HandleRelease()
	p.Wait()
}

func TestDisableMidRecordingDiscards(t *testing.T) {
	rec := &fakeRecorder{samples: []float32{0.1}}
	tr := &fakeTranscriber{text: "discarded"}
	p := newTestPipeline(rec, tr, nil, nil)

	p.HandlePress()
	p.SetEnabled(false)

	if p.State() != Idle {
		t.Error("disable should stop the recording")
	}
	if _, stops := rec.counts(); stops != 1 {
		t.Errorf("stops = %d, want 1", stops)
	}

	// The release that follows the physical key-up is a no-op now.
	p.HandleRelease()
	p.Wait()
	if tr.callCount() != 0 {
		t.Error("discarded audio reached the transcriber")
	}
}

func TestSwapModelDelegates(t *testing.T) {
	tr := &fakeTranscriber{text: "x"}
	p := newTestPipeline(nil, tr, nil, nil)
	if err := p.SwapModel("base"); err != nil {
		t.Fatalf("SwapModel: %v", err)
	}
	if tr.model != "base" {
		t.Errorf("model = %q, want %q", tr.model, "base")
	}
}

func TestStatsAccumulate(t *testing.T) {
	rec := &fakeRecorder{samples: []float32{0.1}}
	p := newTestPipeline(rec, &fakeTranscriber{text: "words"}, nil, nil)

	for i := 0; i < 3; i++ {
		p.HandlePress()
		p.HandleRelease()
		p.Wait()
	}
	if got := p.Stats().Transcriptions; got != 3 {
		t.Errorf("Transcriptions = %d, want 3", got)
	}
}
