package audio

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
)

func pcmOf(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func testConfig() CaptureConfig {
	return CaptureConfig{SampleRate: 16000, Channels: 1}
}

func TestStartStopRoundTrip(t *testing.T) {
	ctx := NewFakeContext(pcmOf(0, 16384, -16384, 32767))
	r := NewRecorder(ctx, nil, testConfig())

	if err := r.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if !r.Active() {
		t.Error("expected active session")
	}

	samples := r.StopRecording()
	if r.Active() {
		t.Error("expected inactive session after stop")
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestStartIdempotent(t *testing.T) {
	ctx := NewFakeContext(pcmOf(100, 200))
	r := NewRecorder(ctx, nil, testConfig())

	if err := r.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if err := r.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Opened(); got != 1 {
		t.Errorf("device opened %d times, want 1", got)
	}

	// The replayed buffer arrives once, not twice.
	samples := r.StopRecording()
	if len(samples) != 2 {
		t.Errorf("got %d samples, want 2", len(samples))
	}
}

func TestStopWithoutStart(t *testing.T) {
	ctx := NewFakeContext(nil)
	r := NewRecorder(ctx, nil, testConfig())
	if samples := r.StopRecording(); len(samples) != 0 {
		t.Errorf("got %d samples, want 0", len(samples))
	}
}

func TestStopEmptyCapture(t *testing.T) {
	ctx := NewFakeContext(nil)
	r := NewRecorder(ctx, nil, testConfig())
	if err := r.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if samples := r.StopRecording(); len(samples) != 0 {
		t.Errorf("got %d samples, want 0", len(samples))
	}
}

func TestOpenFailure(t *testing.T) {
	ctx := NewFakeContext(nil)
	ctx.FailOpen(true)
	r := NewRecorder(ctx, nil, testConfig())

	err := r.StartRecording()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("got %v, want ErrDeviceUnavailable", err)
	}
	if r.Active() {
		t.Error("session must not be active after a failed open")
	}

	// A later start with a working device succeeds.
	ctx.FailOpen(false)
	if err := r.StartRecording(); err != nil {
		t.Fatal(err)
	}
	r.StopRecording()
}

func TestDeviceScopedToSession(t *testing.T) {
	ctx := NewFakeContext(pcmOf(1))
	r := NewRecorder(ctx, nil, testConfig())

	for i := 0; i < 3; i++ {
		if err := r.StartRecording(); err != nil {
			t.Fatal(err)
		}
		r.StopRecording()
	}

	captures := ctx.Captures()
	if len(captures) != 3 {
		t.Fatalf("got %d captures, want 3", len(captures))
	}
	for i, c := range captures {
		if !c.Closed() {
			t.Errorf("capture %d not closed at session end", i)
		}
	}
}

func TestConcurrentStartSingleSession(t *testing.T) {
	ctx := NewFakeContext(pcmOf(1, 2, 3))
	r := NewRecorder(ctx, nil, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.StartRecording()
		}()
	}
	wg.Wait()

	if got := ctx.Opened(); got != 1 {
		t.Errorf("device opened %d times under concurrent start, want 1", got)
	}
	r.StopRecording()
}

func TestMidSessionFeed(t *testing.T) {
	ctx := NewFakeContext(nil)
	r := NewRecorder(ctx, nil, testConfig())
	if err := r.StartRecording(); err != nil {
		t.Fatal(err)
	}

	ctx.Captures()[0].Feed(pcmOf(8192, -8192))

	samples := r.StopRecording()
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0] != 0.25 || samples[1] != -0.25 {
		t.Errorf("got %v", samples)
	}
}
