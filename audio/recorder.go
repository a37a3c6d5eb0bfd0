package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDeviceUnavailable wraps capture-device open failures.
var ErrDeviceUnavailable = errors.New("audio capture device unavailable")

const (
	frameQueueDepth = 256
	stopTimeout     = time.Second
)

// Recorder owns exclusive access to one microphone. A session spans
// StartRecording to StopRecording; the device handle is opened at
// session start and closed at session end, never reused.
type Recorder struct {
	ctx    Context
	device *DeviceInfo
	config CaptureConfig

	mu      sync.Mutex
	active  bool
	capture CaptureDevice
	stop    chan struct{}
	out     chan [][]byte
}

func NewRecorder(ctx Context, device *DeviceInfo, config CaptureConfig) *Recorder {
	return &Recorder{ctx: ctx, device: device, config: config}
}

// StartRecording opens the device and begins accumulating frames. A
// second call while active is a no-op, so the device is never opened
// twice concurrently.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return nil
	}

	capture, err := r.ctx.NewCapture(r.device, r.config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	frames := make(chan []byte, frameQueueDepth)
	capture.SetCallback(func(data []byte, _ uint32) {
		if len(data) == 0 {
			return
		}
		chunk := make([]byte, len(data))
		copy(chunk, data)
		// The device delivery thread must never block; a full queue
		// drops the frame.
		select {
		case frames <- chunk:
		default:
		}
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	stop := make(chan struct{})
	out := make(chan [][]byte, 1)
	go collect(frames, stop, out)

	r.capture = capture
	r.stop = stop
	r.out = out
	r.active = true
	return nil
}

// collect accumulates queued frames until signaled, then drains the
// queue and hands the buffer back.
func collect(frames <-chan []byte, stop <-chan struct{}, out chan<- [][]byte) {
	var buf [][]byte
	for {
		select {
		case chunk := <-frames:
			buf = append(buf, chunk)
		case <-stop:
			for {
				select {
				case chunk := <-frames:
					buf = append(buf, chunk)
				default:
					out <- buf
					return
				}
			}
		}
	}
}

// StopRecording closes the session and returns the captured audio as
// normalized float32 samples in [-1,1]. When nothing was captured (or
// the collector does not finish within the bounded wait) the returned
// buffer is empty. Calling while inactive returns an empty buffer.
func (r *Recorder) StopRecording() []float32 {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil
	}
	capture, stop, out := r.capture, r.stop, r.out
	r.active = false
	r.capture = nil
	r.mu.Unlock()

	capture.Stop()
	capture.ClearCallback()
	capture.Close()

	close(stop)
	var buf [][]byte
	select {
	case buf = <-out:
	case <-time.After(stopTimeout):
	}

	return normalize(buf)
}

// Active reports whether a capture session is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// DeviceName reports the configured device, or the system default.
func (r *Recorder) DeviceName() string {
	if r.device != nil {
		return r.device.Name
	}
	return "system default"
}

// normalize converts accumulated s16le chunks to float32 in [-1,1].
func normalize(chunks [][]byte) []float32 {
	total := 0
	for _, c := range chunks {
		total += len(c) / 2
	}
	samples := make([]float32, 0, total)
	for _, c := range chunks {
		for i := 0; i+1 < len(c); i += 2 {
			s := int16(binary.LittleEndian.Uint16(c[i:]))
			samples = append(samples, float32(s)/32768.0)
		}
	}
	return samples
}
