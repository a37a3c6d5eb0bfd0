package transcriber

import (
	"context"
	"sync"
	"time"
)

// FakeEngine records calls and replays a canned result.
type FakeEngine struct {
	text  string
	err   error
	delay time.Duration

	mu     sync.Mutex
	calls  []Request
	closed bool
}

func NewFake(text string, err error) *FakeEngine {
	return &FakeEngine{text: text, err: err}
}

// SetDelay makes each Transcribe call block, for exercising the
// adapter's serialization.
func (f *FakeEngine) SetDelay(d time.Duration) { f.delay = d }

func (f *FakeEngine) Transcribe(ctx context.Context, r Request) (*Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Result{Text: f.text, Language: r.Language}, nil
}

func (f *FakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FakeEngine) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}

func (f *FakeEngine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
