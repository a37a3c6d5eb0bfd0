package audio

import (
	"errors"
	"sync"
)

const fakeChunkBytes = 2048 // 1024 frames, 16-bit mono

// FakeContext hands out captures that replay a fixed PCM buffer.
type FakeContext struct {
	mu       sync.Mutex
	pcm      []byte
	failOpen bool
	captures []*FakeCapture
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// FailOpen makes subsequent NewCapture calls fail.
func (f *FakeContext) FailOpen(fail bool) {
	f.mu.Lock()
	f.failOpen = fail
	f.mu.Unlock()
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOpen {
		return nil, errors.New("fake device open failure")
	}
	c := &FakeCapture{pcm: f.pcm}
	f.captures = append(f.captures, c)
	return c, nil
}

// Opened reports how many capture devices were handed out.
func (f *FakeContext) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captures)
}

// Captures returns every capture handed out so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

type FakeCapture struct {
	pcm []byte

	mu      sync.Mutex
	cb      DataCallback
	started bool
	stopped bool
	closed  bool
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

// Start replays the whole PCM buffer through the callback in
// fixed-size chunks, synchronously.
func (c *FakeCapture) Start() error {
	c.mu.Lock()
	c.started = true
	cb := c.cb
	c.mu.Unlock()
	if cb == nil {
		return nil
	}
	for pos := 0; pos < len(c.pcm); pos += fakeChunkBytes {
		end := pos + fakeChunkBytes
		if end > len(c.pcm) {
			end = len(c.pcm)
		}
		chunk := make([]byte, end-pos)
		copy(chunk, c.pcm[pos:end])
		cb(chunk, uint32(len(chunk)/2))
	}
	return nil
}

// Feed delivers extra PCM mid-session, as a live device would.
func (c *FakeCapture) Feed(pcm []byte) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb != nil {
		cb(pcm, uint32(len(pcm)/2))
	}
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeCapture) DeviceName() string { return "fake" }
